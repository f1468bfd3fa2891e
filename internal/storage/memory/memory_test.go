package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

func newTodo(orgID uuid.UUID, title string) *domain.Todo {
	now := time.Now().UTC()
	return &domain.Todo{
		ID:             uuid.New(),
		OrganisationID: orgID,
		CreatedBy:      uuid.New(),
		Title:          title,
		Status:         domain.StatusOpen,
		Priority:       domain.PriorityMedium,
		Tags:           []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestAddTodoAssignsVersion(t *testing.T) {
	store := New()
	todo := newTodo(uuid.New(), "write report")

	if err := store.AddTodo(context.Background(), todo); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	if todo.Version == "" {
		t.Fatalf("expected a version token to be assigned")
	}
}

func TestTenantIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()
	orgA, orgB := uuid.New(), uuid.New()

	todo := newTodo(orgA, "private")
	if err := store.AddTodo(ctx, todo); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	if _, err := store.GetTodoByID(ctx, todo.ID, orgB); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("cross-tenant read must look like not-found, got %v", err)
	}
	if err := store.DeleteTodo(ctx, todo.ID, orgB, ""); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("cross-tenant delete must look like not-found, got %v", err)
	}

	page, total, err := store.GetTodos(ctx, orgB, domain.TodoFilter{})
	if err != nil {
		t.Fatalf("GetTodos: %v", err)
	}
	if total != 0 || len(page) != 0 {
		t.Fatalf("expected orgB to see nothing, got %d todos", total)
	}
}

func TestUpdateTodoVersionCheck(t *testing.T) {
	store := New()
	ctx := context.Background()
	orgID := uuid.New()

	todo := newTodo(orgID, "draft")
	if err := store.AddTodo(ctx, todo); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	v1 := todo.Version

	// First writer succeeds and rotates the version.
	first, err := store.GetTodoByID(ctx, todo.ID, orgID)
	if err != nil {
		t.Fatalf("GetTodoByID: %v", err)
	}
	first.Title = "draft v2"
	if err := store.UpdateTodo(ctx, first, v1); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version == v1 {
		t.Fatalf("update must assign a fresh version")
	}

	// Second writer still holds v1 and must be rejected.
	stale, err := store.GetTodoByID(ctx, todo.ID, orgID)
	if err != nil {
		t.Fatalf("GetTodoByID: %v", err)
	}
	stale.Title = "conflicting edit"
	if err := store.UpdateTodo(ctx, stale, v1); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	// The rejected write must not have been applied.
	current, err := store.GetTodoByID(ctx, todo.ID, orgID)
	if err != nil {
		t.Fatalf("GetTodoByID: %v", err)
	}
	if current.Title != "draft v2" {
		t.Fatalf("rejected write leaked: title=%q", current.Title)
	}
}

func TestUpdateTodoUnconditionalWithEmptyVersion(t *testing.T) {
	store := New()
	ctx := context.Background()
	orgID := uuid.New()

	todo := newTodo(orgID, "draft")
	if err := store.AddTodo(ctx, todo); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	todo.Title = "forced"
	if err := store.UpdateTodo(ctx, todo, ""); err != nil {
		t.Fatalf("unconditional update: %v", err)
	}
}

func TestDeleteTodoVersionCheck(t *testing.T) {
	store := New()
	ctx := context.Background()
	orgID := uuid.New()

	todo := newTodo(orgID, "doomed")
	if err := store.AddTodo(ctx, todo); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	if err := store.DeleteTodo(ctx, todo.ID, orgID, "stale-token"); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if err := store.DeleteTodo(ctx, todo.ID, orgID, todo.Version); err != nil {
		t.Fatalf("delete with correct version: %v", err)
	}
	if _, err := store.GetTodoByID(ctx, todo.ID, orgID); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("todo should be gone, got %v", err)
	}
}

func TestGetTodosReturnsClones(t *testing.T) {
	store := New()
	ctx := context.Background()
	orgID := uuid.New()

	todo := newTodo(orgID, "original")
	todo.Tags = []string{"a"}
	if err := store.AddTodo(ctx, todo); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	page, _, err := store.GetTodos(ctx, orgID, domain.TodoFilter{})
	if err != nil {
		t.Fatalf("GetTodos: %v", err)
	}
	page[0].Title = "mutated"
	page[0].Tags[0] = "mutated"

	reread, err := store.GetTodoByID(ctx, todo.ID, orgID)
	if err != nil {
		t.Fatalf("GetTodoByID: %v", err)
	}
	if reread.Title != "original" || reread.Tags[0] != "a" {
		t.Fatalf("caller mutation leaked into the store")
	}
}

func TestMembershipLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()
	userID, orgID := uuid.New(), uuid.New()

	if _, err := store.GetMembership(ctx, userID, orgID); !errors.Is(err, domain.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}

	m := &domain.Membership{UserID: userID, OrganisationID: orgID, Role: domain.RoleMember, JoinedAt: time.Now().UTC()}
	if err := store.AddMembership(ctx, m); err != nil {
		t.Fatalf("AddMembership: %v", err)
	}

	m.Role = domain.RoleOrgAdmin
	if err := store.UpdateMembership(ctx, m); err != nil {
		t.Fatalf("UpdateMembership: %v", err)
	}
	got, err := store.GetMembership(ctx, userID, orgID)
	if err != nil {
		t.Fatalf("GetMembership: %v", err)
	}
	if got.Role != domain.RoleOrgAdmin {
		t.Fatalf("role not updated, got %s", got.Role)
	}

	if err := store.RemoveMembership(ctx, userID, orgID); err != nil {
		t.Fatalf("RemoveMembership: %v", err)
	}
	if _, err := store.GetMembership(ctx, userID, orgID); !errors.Is(err, domain.ErrMembershipNotFound) {
		t.Fatalf("membership should be gone, got %v", err)
	}
}

func TestGetAuditLogsFiltersByOrgAndWindow(t *testing.T) {
	store := New()
	ctx := context.Background()
	orgA, orgB := uuid.New(), uuid.New()
	base := time.Now().UTC()

	add := func(orgID uuid.UUID, at time.Time) {
		id := uuid.New()
		org := orgID
		if err := store.AddAuditLog(ctx, &domain.AuditLog{
			ID: id, Timestamp: at, ActorUserID: uuid.New(), OrganisationID: &org, ActionType: "TodoCreated",
		}); err != nil {
			t.Fatalf("AddAuditLog: %v", err)
		}
	}
	add(orgA, base.Add(-2*time.Hour))
	add(orgA, base.Add(-time.Hour))
	add(orgA, base)
	add(orgB, base)

	from := base.Add(-90 * time.Minute)
	entries, err := store.GetAuditLogs(ctx, orgA, &from, nil)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in window, got %d", len(entries))
	}
	if entries[0].Timestamp.Before(entries[1].Timestamp) {
		t.Fatalf("entries must be newest first")
	}
}
