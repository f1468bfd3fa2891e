package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/api/metrics"
	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// TodoService implements all todo reads and version-guarded mutations.
// The storage backend enforces the expected-version comparison under its own
// lock; this layer owns field semantics and audit entries.
type TodoService struct {
	storage ports.Storage
	audit   ports.AuditService
	log     zerolog.Logger
}

func NewTodoService(storage ports.Storage, audit ports.AuditService, log zerolog.Logger) *TodoService {
	return &TodoService{storage: storage, audit: audit, log: log}
}

func (s *TodoService) List(ctx context.Context, orgID uuid.UUID, filter domain.TodoFilter) (*ports.TodoPage, error) {
	items, total, err := s.storage.GetTodos(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	return &ports.TodoPage{Items: items, Total: total}, nil
}

func (s *TodoService) Get(ctx context.Context, orgID, id uuid.UUID) (*domain.Todo, error) {
	return s.storage.GetTodoByID(ctx, id, orgID)
}

func (s *TodoService) Create(ctx context.Context, in ports.CreateTodoInput) (*domain.Todo, error) {
	now := time.Now().UTC()
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	todo := &domain.Todo{
		ID:             uuid.New(),
		OrganisationID: in.OrganisationID,
		CreatedBy:      in.ActorID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         domain.StatusOpen,
		Priority:       priority,
		Tags:           tags,
		DueDate:        in.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.storage.AddTodo(ctx, todo); err != nil {
		return nil, err
	}

	metrics.TodosCreatedTotal.WithLabelValues(string(todo.Priority)).Inc()
	s.recordAudit(ctx, "TodoCreated", todo.ID.String(),
		fmt.Sprintf("Todo %q created", todo.Title), in.ActorID, in.OrganisationID)

	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, in ports.UpdateTodoInput) (*domain.Todo, error) {
	todo, err := s.storage.GetTodoByID(ctx, in.ID, in.OrganisationID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		todo.Title = *in.Title
	}
	if in.Description != nil {
		todo.Description = *in.Description
	}
	if in.Priority != nil {
		todo.Priority = *in.Priority
	}
	if in.Tags != nil {
		todo.Tags = in.Tags
	}
	if in.DueDate != nil {
		todo.DueDate = in.DueDate
	}

	if err := s.applyUpdate(ctx, todo, in.ExpectedVersion); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "TodoUpdated", todo.ID.String(),
		fmt.Sprintf("Todo %q updated", todo.Title), in.ActorID, in.OrganisationID)
	return todo, nil
}

// Toggle flips Open <-> Done.
func (s *TodoService) Toggle(ctx context.Context, in ports.TodoMutationInput) (*domain.Todo, error) {
	todo, err := s.storage.GetTodoByID(ctx, in.ID, in.OrganisationID)
	if err != nil {
		return nil, err
	}

	if todo.Status == domain.StatusOpen {
		todo.Status = domain.StatusDone
	} else {
		todo.Status = domain.StatusOpen
	}

	if err := s.applyUpdate(ctx, todo, in.ExpectedVersion); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "TodoToggled", todo.ID.String(),
		fmt.Sprintf("Todo status changed to %s", todo.Status), in.ActorID, in.OrganisationID)
	return todo, nil
}

func (s *TodoService) SoftDelete(ctx context.Context, in ports.TodoMutationInput) error {
	todo, err := s.storage.GetTodoByID(ctx, in.ID, in.OrganisationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	todo.DeletedAt = &now

	if err := s.applyUpdate(ctx, todo, in.ExpectedVersion); err != nil {
		return err
	}

	s.recordAudit(ctx, "TodoSoftDeleted", todo.ID.String(),
		fmt.Sprintf("Todo %q soft deleted", todo.Title), in.ActorID, in.OrganisationID)
	return nil
}

func (s *TodoService) Restore(ctx context.Context, in ports.TodoMutationInput) (*domain.Todo, error) {
	todo, err := s.storage.GetTodoByID(ctx, in.ID, in.OrganisationID)
	if err != nil {
		return nil, err
	}

	todo.DeletedAt = nil

	if err := s.applyUpdate(ctx, todo, in.ExpectedVersion); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "TodoRestored", todo.ID.String(),
		fmt.Sprintf("Todo %q restored", todo.Title), in.ActorID, in.OrganisationID)
	return todo, nil
}

// HardDelete removes the row entirely, bypassing any soft-delete state. A
// supplied expected version is still honoured.
func (s *TodoService) HardDelete(ctx context.Context, in ports.TodoMutationInput) error {
	if err := s.storage.DeleteTodo(ctx, in.ID, in.OrganisationID, in.ExpectedVersion); err != nil {
		if errors.Is(err, domain.ErrVersionMismatch) {
			metrics.TodoConflictsTotal.Inc()
		}
		return err
	}

	s.recordAudit(ctx, "TodoHardDeleted", in.ID.String(),
		"Todo permanently deleted", in.ActorID, in.OrganisationID)
	return nil
}

func (s *TodoService) applyUpdate(ctx context.Context, todo *domain.Todo, expectedVersion string) error {
	if err := s.storage.UpdateTodo(ctx, todo, expectedVersion); err != nil {
		if errors.Is(err, domain.ErrVersionMismatch) {
			metrics.TodoConflictsTotal.Inc()
		}
		return err
	}
	return nil
}

// recordAudit is non-fatal: a failed audit write never fails the mutation.
func (s *TodoService) recordAudit(ctx context.Context, action, entityID, details string, actorID, orgID uuid.UUID) {
	if err := s.audit.Record(ctx, action, "Todo", entityID, details, actorID, orgID); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}
