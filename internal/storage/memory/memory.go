// Package memory provides the volatile storage backend: concurrent-safe maps
// with no persistence across restarts. Individual operations are atomic, but
// there are no cross-entity transactions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/storage/query"
)

// Store implements ports.Storage over in-process maps.
type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*domain.User
	organisations map[uuid.UUID]*domain.Organisation
	memberships   map[string]*domain.Membership // key: "userId:orgId"
	todos         map[uuid.UUID]*domain.Todo
	auditLogs     map[uuid.UUID]*domain.AuditLog
}

// New returns an empty volatile store.
func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*domain.User),
		organisations: make(map[uuid.UUID]*domain.Organisation),
		memberships:   make(map[string]*domain.Membership),
		todos:         make(map[uuid.UUID]*domain.Todo),
		auditLogs:     make(map[uuid.UUID]*domain.AuditLog),
	}
}

// --- Users ---

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) AddUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	s.users[user.ID] = user.Clone()
	return nil
}

// --- Organisations ---

func (s *Store) GetOrganisationByID(_ context.Context, id uuid.UUID) (*domain.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organisations[id]
	if !ok {
		return nil, domain.ErrOrganisationNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *Store) GetUserOrganisations(_ context.Context, userID uuid.UUID) ([]*domain.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orgIDs := make(map[uuid.UUID]struct{})
	for _, m := range s.memberships {
		if m.UserID == userID {
			orgIDs[m.OrganisationID] = struct{}{}
		}
	}
	orgs := make([]*domain.Organisation, 0, len(orgIDs))
	for id := range orgIDs {
		if o, ok := s.organisations[id]; ok {
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
	clone := *org
	s.organisations[org.ID] = &clone
	return nil
}

func (s *Store) UpdateOrganisation(_ context.Context, org *domain.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organisations[org.ID]; !ok {
		return domain.ErrOrganisationNotFound
	}
	clone := *org
	s.organisations[org.ID] = &clone
	return nil
}

// --- Memberships ---

func (s *Store) GetMembership(_ context.Context, userID, orgID uuid.UUID) (*domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[domain.MembershipKey(userID, orgID)]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *Store) GetOrganisationMemberships(_ context.Context, orgID uuid.UUID) ([]*domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Membership
	for _, m := range s.memberships {
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
	clone := *m
	s.memberships[domain.MembershipKey(m.UserID, m.OrganisationID)] = &clone
	return nil
}

func (s *Store) UpdateMembership(_ context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.MembershipKey(m.UserID, m.OrganisationID)
	if _, ok := s.memberships[key]; !ok {
		return domain.ErrMembershipNotFound
	}
	clone := *m
	s.memberships[key] = &clone
	return nil
}

func (s *Store) RemoveMembership(_ context.Context, userID, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memberships, domain.MembershipKey(userID, orgID))
	return nil
}

// --- Todos ---

func (s *Store) GetTodoByID(_ context.Context, id, orgID uuid.UUID) (*domain.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok || t.OrganisationID != orgID {
		// Tenant isolation: another organisation's todo is simply not found.
		return nil, domain.ErrTodoNotFound
	}
	return t.Clone(), nil
}

func (s *Store) GetTodos(_ context.Context, orgID uuid.UUID, filter domain.TodoFilter) ([]*domain.Todo, int, error) {
	s.mu.RLock()
	scoped := make([]*domain.Todo, 0)
	for _, t := range s.todos {
		if t.OrganisationID == orgID {
			scoped = append(scoped, t.Clone())
		}
	}
	s.mu.RUnlock()

	page, total := query.Apply(scoped, filter, time.Now().UTC())
	return page, total, nil
}

func (s *Store) AddTodo(_ context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo.Version = uuid.NewString()
	s.todos[todo.ID] = todo.Clone()
	return nil
}

func (s *Store) UpdateTodo(_ context.Context, todo *domain.Todo, expectedVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.todos[todo.ID]
	if !ok || current.OrganisationID != todo.OrganisationID {
		return domain.ErrTodoNotFound
	}
	if expectedVersion != "" && expectedVersion != current.Version {
		return domain.ErrVersionMismatch
	}
	todo.Version = uuid.NewString()
	todo.UpdatedAt = time.Now().UTC()
	s.todos[todo.ID] = todo.Clone()
	return nil
}

func (s *Store) DeleteTodo(_ context.Context, id, orgID uuid.UUID, expectedVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.todos[id]
	if !ok || current.OrganisationID != orgID {
		return domain.ErrTodoNotFound
	}
	if expectedVersion != "" && expectedVersion != current.Version {
		return domain.ErrVersionMismatch
	}
	delete(s.todos, id)
	return nil
}

// --- Audit logs ---

func (s *Store) AddAuditLog(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *log
	s.auditLogs[log.ID] = &clone
	return nil
}

func (s *Store) GetAuditLogs(_ context.Context, orgID uuid.UUID, from, to *time.Time) ([]*domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range s.auditLogs {
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
