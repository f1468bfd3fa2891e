// Package file provides the durable storage backend: one JSON document on
// disk, guarded by a single lock, written atomically via a temp-file rename.
// Deliberately coarse — correctness over throughput, for a single-process
// deployment.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/storage/query"
)

const defaultCacheTTL = 5 * time.Second

// Store implements ports.Storage over a single JSON file.
type Store struct {
	path     string
	log      zerolog.Logger
	cacheTTL time.Duration

	mu      sync.Mutex
	cache   *Document
	cacheAt time.Time
}

// New opens (or initialises) the store at path. An existing file is decoded
// and migrated before first use; a missing one is created empty at the
// current schema version.
func New(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		log:      log,
		cacheTTL: defaultCacheTTL,
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file storage: create dir: %w", err)
		}
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.writeLocked(newDocument()); err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("initialised new file storage")
		return s, nil
	}

	// Load and migrate eagerly so schema problems are fatal at startup, not
	// on the first request.
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.readLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// readLocked returns the current document, from cache when fresh. Callers
// hold the lock and must not mutate the result without writing it back via
// writeLocked.
func (s *Store) readLocked() (*Document, error) {
	if s.cache != nil && time.Since(s.cacheAt) < s.cacheTTL {
		return s.cache, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("file storage: read %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("file storage: decode %s: %w", s.path, err)
	}
	doc.normalise()

	before := doc.SchemaVersion
	if err := Migrate(&doc); err != nil {
		return nil, err
	}
	if doc.SchemaVersion != before {
		s.log.Info().Int("from", before).Int("to", doc.SchemaVersion).Msg("migrated storage schema")
	}

	s.cache = &doc
	s.cacheAt = time.Now()
	return &doc, nil
}

// writeLocked persists doc and installs it as the cache inside the same
// critical section. On failure the cache is dropped: doc is usually the
// cached document already carrying the failed mutation, and serving it would
// expose state the disk never accepted. The next read reloads the last
// committed document.
func (s *Store) writeLocked(doc *Document) error {
	if err := s.persist(doc); err != nil {
		s.cache = nil
		return err
	}
	s.cache = doc
	s.cacheAt = time.Now()
	return nil
}

// persist serialises doc to a temp file and renames it over the primary
// file, so a crash mid-write never leaves a corrupt document.
func (s *Store) persist(doc *Document) error {
	doc.LastModified = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file storage: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file storage: write temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("file storage: rename: %w", err)
	}
	return nil
}

// --- Users ---

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	r, ok := doc.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.toDomain(), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	for _, r := range doc.Users {
		if r.Username == username {
			return r.toDomain(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	for _, r := range doc.Users {
		if r.Email == email {
			return r.toDomain(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) AddUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	doc.Users[user.ID] = toUserRecord(user)
	return s.writeLocked(doc)
}

func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := doc.Users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	doc.Users[user.ID] = toUserRecord(user)
	return s.writeLocked(doc)
}

// --- Organisations ---

func (s *Store) GetOrganisationByID(_ context.Context, id uuid.UUID) (*domain.Organisation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	o, ok := doc.Organisations[id]
	if !ok {
		return nil, domain.ErrOrganisationNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *Store) GetUserOrganisations(_ context.Context, userID uuid.UUID) ([]*domain.Organisation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	orgIDs := make(map[uuid.UUID]struct{})
	for _, m := range doc.Memberships {
		if m.UserID == userID {
			orgIDs[m.OrganisationID] = struct{}{}
		}
	}
	orgs := make([]*domain.Organisation, 0, len(orgIDs))
	for id := range orgIDs {
		if o, ok := doc.Organisations[id]; ok {
			clone := *o
			orgs = append(orgs, &clone)
		}
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].CreatedAt.Before(orgs[j].CreatedAt) })
	return orgs, nil
}

func (s *Store) AddOrganisation(_ context.Context, org *domain.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	clone := *org
	doc.Organisations[org.ID] = &clone
	return s.writeLocked(doc)
}

func (s *Store) UpdateOrganisation(_ context.Context, org *domain.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := doc.Organisations[org.ID]; !ok {
		return domain.ErrOrganisationNotFound
	}
	clone := *org
	doc.Organisations[org.ID] = &clone
	return s.writeLocked(doc)
}

// --- Memberships ---

func (s *Store) GetMembership(_ context.Context, userID, orgID uuid.UUID) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	m, ok := doc.Memberships[domain.MembershipKey(userID, orgID)]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *Store) GetOrganisationMemberships(_ context.Context, orgID uuid.UUID) ([]*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	var out []*domain.Membership
	for _, m := range doc.Memberships {
		if m.OrganisationID == orgID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *Store) AddMembership(_ context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	clone := *m
	doc.Memberships[domain.MembershipKey(m.UserID, m.OrganisationID)] = &clone
	return s.writeLocked(doc)
}

func (s *Store) UpdateMembership(_ context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	key := domain.MembershipKey(m.UserID, m.OrganisationID)
	if _, ok := doc.Memberships[key]; !ok {
		return domain.ErrMembershipNotFound
	}
	clone := *m
	doc.Memberships[key] = &clone
	return s.writeLocked(doc)
}

func (s *Store) RemoveMembership(_ context.Context, userID, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	delete(doc.Memberships, domain.MembershipKey(userID, orgID))
	return s.writeLocked(doc)
}

// --- Todos ---

func (s *Store) GetTodoByID(_ context.Context, id, orgID uuid.UUID) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	t, ok := doc.Todos[id]
	if !ok || t.OrganisationID != orgID {
		return nil, domain.ErrTodoNotFound
	}
	return t.Clone(), nil
}

func (s *Store) GetTodos(_ context.Context, orgID uuid.UUID, filter domain.TodoFilter) ([]*domain.Todo, int, error) {
	s.mu.Lock()
	doc, err := s.readLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, 0, err
	}
	scoped := make([]*domain.Todo, 0)
	for _, t := range doc.Todos {
		if t.OrganisationID == orgID {
			scoped = append(scoped, t.Clone())
		}
	}
	s.mu.Unlock()

	page, total := query.Apply(scoped, filter, time.Now().UTC())
	return page, total, nil
}

func (s *Store) AddTodo(_ context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	todo.Version = uuid.NewString()
	doc.Todos[todo.ID] = todo.Clone()
	return s.writeLocked(doc)
}

func (s *Store) UpdateTodo(_ context.Context, todo *domain.Todo, expectedVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	current, ok := doc.Todos[todo.ID]
	if !ok || current.OrganisationID != todo.OrganisationID {
		return domain.ErrTodoNotFound
	}
	if expectedVersion != "" && expectedVersion != current.Version {
		return domain.ErrVersionMismatch
	}
	todo.Version = uuid.NewString()
	todo.UpdatedAt = time.Now().UTC()
	doc.Todos[todo.ID] = todo.Clone()
	return s.writeLocked(doc)
}

func (s *Store) DeleteTodo(_ context.Context, id, orgID uuid.UUID, expectedVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	current, ok := doc.Todos[id]
	if !ok || current.OrganisationID != orgID {
		return domain.ErrTodoNotFound
	}
	if expectedVersion != "" && expectedVersion != current.Version {
		return domain.ErrVersionMismatch
	}
	delete(doc.Todos, id)
	return s.writeLocked(doc)
}

// --- Audit logs ---

func (s *Store) AddAuditLog(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	clone := *log
	doc.AuditLogs[log.ID] = &clone
	return s.writeLocked(doc)
}

func (s *Store) GetAuditLogs(_ context.Context, orgID uuid.UUID, from, to *time.Time) ([]*domain.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	var out []*domain.AuditLog
	for _, l := range doc.AuditLogs {
		if l.OrganisationID == nil || *l.OrganisationID != orgID {
			continue
		}
		if from != nil && l.Timestamp.Before(*from) {
			continue
		}
		if to != nil && l.Timestamp.After(*to) {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
