package file

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// Document is the single JSON document the durable backend persists. All
// collections are keyed by entity id; memberships by "userId:orgId".
type Document struct {
	SchemaVersion int                                `json:"schemaVersion"`
	LastModified  time.Time                          `json:"lastModified"`
	Users         map[uuid.UUID]*userRecord          `json:"users"`
	Organisations map[uuid.UUID]*domain.Organisation `json:"organisations"`
	Memberships   map[string]*domain.Membership      `json:"memberships"`
	Todos         map[uuid.UUID]*domain.Todo         `json:"todos"`
	AuditLogs     map[uuid.UUID]*domain.AuditLog     `json:"auditLogs"`
}

// userRecord is the persisted user shape. domain.User hides the password hash
// and lockout state from JSON; the store must keep them.
type userRecord struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"passwordHash"`
	CreatedAt           time.Time  `json:"createdAt"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	LockoutEnd          *time.Time `json:"lockoutEnd,omitempty"`
}

func toUserRecord(u *domain.User) *userRecord {
	c := u.Clone()
	return &userRecord{
		ID:                  c.ID,
		Username:            c.Username,
		Email:               c.Email,
		PasswordHash:        c.PasswordHash,
		CreatedAt:           c.CreatedAt,
		LastLoginAt:         c.LastLoginAt,
		FailedLoginAttempts: c.FailedLoginAttempts,
		LockoutEnd:          c.LockoutEnd,
	}
}

func (r *userRecord) toDomain() *domain.User {
	u := &domain.User{
		ID:                  r.ID,
		Username:            r.Username,
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		CreatedAt:           r.CreatedAt,
		LastLoginAt:         r.LastLoginAt,
		FailedLoginAttempts: r.FailedLoginAttempts,
		LockoutEnd:          r.LockoutEnd,
	}
	return u.Clone()
}

// newDocument returns an empty document at the current schema version.
func newDocument() *Document {
	return &Document{
		SchemaVersion: LatestSchemaVersion,
		LastModified:  time.Now().UTC(),
		Users:         make(map[uuid.UUID]*userRecord),
		Organisations: make(map[uuid.UUID]*domain.Organisation),
		Memberships:   make(map[string]*domain.Membership),
		Todos:         make(map[uuid.UUID]*domain.Todo),
		AuditLogs:     make(map[uuid.UUID]*domain.AuditLog),
	}
}

// normalise fills in nil maps after decoding older or hand-edited files.
func (d *Document) normalise() {
	if d.Users == nil {
		d.Users = make(map[uuid.UUID]*userRecord)
	}
	if d.Organisations == nil {
		d.Organisations = make(map[uuid.UUID]*domain.Organisation)
	}
	if d.Memberships == nil {
		d.Memberships = make(map[string]*domain.Membership)
	}
	if d.Todos == nil {
		d.Todos = make(map[uuid.UUID]*domain.Todo)
	}
	if d.AuditLogs == nil {
		d.AuditLogs = make(map[uuid.UUID]*domain.AuditLog)
	}
}
