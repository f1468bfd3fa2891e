package file

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

func docWithTodo(schemaVersion int, todo *domain.Todo) *Document {
	doc := newDocument()
	doc.SchemaVersion = schemaVersion
	doc.Todos[todo.ID] = todo
	return doc
}

func TestMigrateV0AddsVersionTokens(t *testing.T) {
	todo := &domain.Todo{ID: uuid.New(), Title: "legacy", CreatedAt: time.Now().UTC()}
	doc := docWithTodo(0, todo)

	if err := Migrate(doc); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if doc.SchemaVersion != LatestSchemaVersion {
		t.Fatalf("expected schema v%d after migration, got v%d", LatestSchemaVersion, doc.SchemaVersion)
	}
	if todo.Version == "" {
		t.Fatalf("v0 todo must have received a version token")
	}
	if todo.Tags == nil {
		t.Fatalf("v1 step must have normalised nil tags")
	}
}

func TestMigratePreservesExistingVersions(t *testing.T) {
	todo := &domain.Todo{ID: uuid.New(), Title: "has-version", Version: "keep-me"}
	doc := docWithTodo(0, todo)

	if err := Migrate(doc); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if todo.Version != "keep-me" {
		t.Fatalf("existing version token must be preserved, got %q", todo.Version)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	todo := &domain.Todo{ID: uuid.New(), Title: "legacy"}
	doc := docWithTodo(0, todo)

	if err := Migrate(doc); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	version := todo.Version

	if err := Migrate(doc); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if todo.Version != version {
		t.Fatalf("re-running migration must not rotate version tokens")
	}
	if doc.SchemaVersion != LatestSchemaVersion {
		t.Fatalf("schema version drifted to v%d", doc.SchemaVersion)
	}
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	doc := newDocument()
	doc.SchemaVersion = LatestSchemaVersion + 1

	if err := Migrate(doc); !errors.Is(err, domain.ErrSchemaTooNew) {
		t.Fatalf("expected ErrSchemaTooNew, got %v", err)
	}
}
