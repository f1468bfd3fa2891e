package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// CreateTodoInput carries everything needed to create a todo.
type CreateTodoInput struct {
	OrganisationID uuid.UUID
	ActorID        uuid.UUID
	Title          string
	Description    string
	Priority       domain.TodoPriority // empty = Medium
	Tags           []string
	DueDate        *time.Time
}

// UpdateTodoInput overwrites the mutable fields of an existing todo.
// Nil pointers leave the current value untouched.
type UpdateTodoInput struct {
	OrganisationID  uuid.UUID
	ActorID         uuid.UUID
	ID              uuid.UUID
	ExpectedVersion string // empty = unconditional, last-writer-wins
	Title           *string
	Description     *string
	Priority        *domain.TodoPriority
	Tags            []string // nil = keep
	DueDate         *time.Time
}

// TodoMutationInput identifies a todo for toggle/delete/restore operations.
type TodoMutationInput struct {
	OrganisationID  uuid.UUID
	ActorID         uuid.UUID
	ID              uuid.UUID
	ExpectedVersion string
}

// TodoPage is one page of results plus the pre-pagination total.
type TodoPage struct {
	Items []*domain.Todo
	Total int
}

// TodoService covers all todo reads and version-guarded mutations.
type TodoService interface {
	List(ctx context.Context, orgID uuid.UUID, filter domain.TodoFilter) (*TodoPage, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*domain.Todo, error)
	Create(ctx context.Context, in CreateTodoInput) (*domain.Todo, error)
	Update(ctx context.Context, in UpdateTodoInput) (*domain.Todo, error)
	Toggle(ctx context.Context, in TodoMutationInput) (*domain.Todo, error)
	SoftDelete(ctx context.Context, in TodoMutationInput) error
	Restore(ctx context.Context, in TodoMutationInput) (*domain.Todo, error)
	HardDelete(ctx context.Context, in TodoMutationInput) error
}
