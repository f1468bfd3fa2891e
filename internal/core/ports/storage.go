package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// Storage is the full persistence capability set. Two interchangeable
// backends implement it (volatile in-memory and durable single-file), plus an
// optional MongoDB backend; the implementation is selected once at startup.
//
// Contract guarantees:
//   - Todo reads are scoped by organisation id; a todo owned by another
//     organisation is reported as domain.ErrTodoNotFound, never returned.
//   - AddTodo/UpdateTodo assign a fresh Version token; UpdateTodo also
//     refreshes UpdatedAt. Callers cannot set either.
//   - UpdateTodo/DeleteTodo compare a non-empty expectedVersion against the
//     stored token under the backend's lock and return
//     domain.ErrVersionMismatch without applying any change on mismatch.
//     An empty expectedVersion makes the mutation unconditional.
type Storage interface {
	// Users
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	AddUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error

	// Organisations
	GetOrganisationByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error)
	GetUserOrganisations(ctx context.Context, userID uuid.UUID) ([]*domain.Organisation, error)
	AddOrganisation(ctx context.Context, org *domain.Organisation) error
	UpdateOrganisation(ctx context.Context, org *domain.Organisation) error

	// Memberships
	GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*domain.Membership, error)
	GetOrganisationMemberships(ctx context.Context, orgID uuid.UUID) ([]*domain.Membership, error)
	AddMembership(ctx context.Context, m *domain.Membership) error
	UpdateMembership(ctx context.Context, m *domain.Membership) error
	RemoveMembership(ctx context.Context, userID, orgID uuid.UUID) error

	// Todos. GetTodos returns the page plus the post-filter, pre-pagination
	// total so clients can compute total pages.
	GetTodoByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Todo, error)
	GetTodos(ctx context.Context, orgID uuid.UUID, filter domain.TodoFilter) ([]*domain.Todo, int, error)
	AddTodo(ctx context.Context, todo *domain.Todo) error
	UpdateTodo(ctx context.Context, todo *domain.Todo, expectedVersion string) error
	DeleteTodo(ctx context.Context, id, orgID uuid.UUID, expectedVersion string) error

	// Audit logs
	AddAuditLog(ctx context.Context, log *domain.AuditLog) error
	GetAuditLogs(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]*domain.AuditLog, error)
}
