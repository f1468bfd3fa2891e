package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
	"github.com/taskhub/taskhub/internal/storage/memory"
)

func newTodoService() (*TodoService, *memory.Store) {
	store := memory.New()
	audit := NewAuditService(store, zerolog.Nop())
	return NewTodoService(store, audit, zerolog.Nop()), store
}

func createTodo(t *testing.T, svc *TodoService, orgID, actorID uuid.UUID, title string) *domain.Todo {
	t.Helper()
	todo, err := svc.Create(context.Background(), ports.CreateTodoInput{
		OrganisationID: orgID,
		ActorID:        actorID,
		Title:          title,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", title, err)
	}
	return todo
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTodoService()
	todo := createTodo(t, svc, uuid.New(), uuid.New(), "plan sprint")

	if todo.Status != domain.StatusOpen {
		t.Fatalf("new todo must be Open, got %s", todo.Status)
	}
	if todo.Priority != domain.PriorityMedium {
		t.Fatalf("default priority must be Medium, got %s", todo.Priority)
	}
	if todo.Tags == nil {
		t.Fatalf("tags must never be nil")
	}
	if todo.Version == "" {
		t.Fatalf("create must assign a version token")
	}
}

func TestCreateWritesAuditEntry(t *testing.T) {
	svc, store := newTodoService()
	orgID := uuid.New()
	createTodo(t, svc, orgID, uuid.New(), "audited")

	entries, err := store.GetAuditLogs(context.Background(), orgID, nil, nil)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(entries) != 1 || entries[0].ActionType != "TodoCreated" {
		t.Fatalf("expected one TodoCreated entry, got %+v", entries)
	}
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	svc, _ := newTodoService()
	orgID, actorID := uuid.New(), uuid.New()
	todo := createTodo(t, svc, orgID, actorID, "original")

	newTitle := "renamed"
	updated, err := svc.Update(context.Background(), ports.UpdateTodoInput{
		OrganisationID:  orgID,
		ActorID:         actorID,
		ID:              todo.ID,
		ExpectedVersion: todo.Version,
		Title:           &newTitle,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("title not updated")
	}
	if updated.Priority != todo.Priority {
		t.Fatalf("untouched field changed")
	}
	if updated.Version == todo.Version {
		t.Fatalf("update must rotate the version token")
	}
}

func TestConcurrentEditScenario(t *testing.T) {
	// Two clients read v1. The first write wins and produces v2; the second,
	// still holding v1, must get a version mismatch. After re-reading, the
	// second client's retry with v2 succeeds.
	svc, _ := newTodoService()
	ctx := context.Background()
	orgID, actorID := uuid.New(), uuid.New()
	todo := createTodo(t, svc, orgID, actorID, "shared")
	v1 := todo.Version

	titleA := "edit by A"
	winner, err := svc.Update(ctx, ports.UpdateTodoInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID,
		ExpectedVersion: v1, Title: &titleA,
	})
	if err != nil {
		t.Fatalf("first writer: %v", err)
	}

	titleB := "edit by B"
	_, err = svc.Update(ctx, ports.UpdateTodoInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID,
		ExpectedVersion: v1, Title: &titleB,
	})
	if !errors.Is(err, domain.ErrVersionMismatch) {
		t.Fatalf("second writer: expected ErrVersionMismatch, got %v", err)
	}

	retried, err := svc.Update(ctx, ports.UpdateTodoInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID,
		ExpectedVersion: winner.Version, Title: &titleB,
	})
	if err != nil {
		t.Fatalf("retry with fresh version: %v", err)
	}
	if retried.Title != "edit by B" {
		t.Fatalf("retry not applied")
	}
}

func TestToggleFlipsStatus(t *testing.T) {
	svc, _ := newTodoService()
	ctx := context.Background()
	orgID, actorID := uuid.New(), uuid.New()
	todo := createTodo(t, svc, orgID, actorID, "toggle me")

	toggled, err := svc.Toggle(ctx, ports.TodoMutationInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID, ExpectedVersion: todo.Version,
	})
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.Status != domain.StatusDone {
		t.Fatalf("expected Done after first toggle, got %s", toggled.Status)
	}

	back, err := svc.Toggle(ctx, ports.TodoMutationInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID, ExpectedVersion: toggled.Version,
	})
	if err != nil {
		t.Fatalf("second Toggle: %v", err)
	}
	if back.Status != domain.StatusOpen {
		t.Fatalf("expected Open after second toggle, got %s", back.Status)
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	svc, _ := newTodoService()
	ctx := context.Background()
	orgID, actorID := uuid.New(), uuid.New()
	todo := createTodo(t, svc, orgID, actorID, "recoverable")

	if err := svc.SoftDelete(ctx, ports.TodoMutationInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID, ExpectedVersion: todo.Version,
	}); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	// Hidden from the default listing, still readable by id.
	page, err := svc.List(ctx, orgID, domain.TodoFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("soft-deleted todo must not appear in default listing")
	}
	deleted, err := svc.Get(ctx, orgID, todo.ID)
	if err != nil {
		t.Fatalf("Get after soft delete: %v", err)
	}
	if !deleted.IsDeleted() {
		t.Fatalf("DeletedAt not set")
	}

	restored, err := svc.Restore(ctx, ports.TodoMutationInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID, ExpectedVersion: deleted.Version,
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.IsDeleted() {
		t.Fatalf("restore must clear DeletedAt")
	}

	page, err = svc.List(ctx, orgID, domain.TodoFilter{})
	if err != nil {
		t.Fatalf("List after restore: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("restored todo must reappear in listing")
	}
}

func TestHardDeleteHonoursVersion(t *testing.T) {
	svc, _ := newTodoService()
	ctx := context.Background()
	orgID, actorID := uuid.New(), uuid.New()
	todo := createTodo(t, svc, orgID, actorID, "permanent")

	if err := svc.HardDelete(ctx, ports.TodoMutationInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID, ExpectedVersion: "stale",
	}); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	if err := svc.HardDelete(ctx, ports.TodoMutationInput{
		OrganisationID: orgID, ActorID: actorID, ID: todo.ID, ExpectedVersion: todo.Version,
	}); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if _, err := svc.Get(ctx, orgID, todo.ID); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("todo must be gone after hard delete, got %v", err)
	}
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	store := memory.New()
	svc := NewTodoService(store, failingAudit{}, zerolog.Nop())

	todo, err := svc.Create(context.Background(), ports.CreateTodoInput{
		OrganisationID: uuid.New(),
		ActorID:        uuid.New(),
		Title:          "still created",
	})
	if err != nil {
		t.Fatalf("Create must succeed despite audit failure: %v", err)
	}
	if todo.ID == uuid.Nil {
		t.Fatalf("todo not created")
	}
}

type failingAudit struct{}

func (failingAudit) Record(context.Context, string, string, string, string, uuid.UUID, uuid.UUID) error {
	return errors.New("audit sink down")
}

func (failingAudit) List(context.Context, uuid.UUID, *time.Time, *time.Time) ([]*domain.AuditLog, error) {
	return nil, errors.New("audit sink down")
}
