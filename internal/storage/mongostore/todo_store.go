package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/storage/query"
)

type todoDoc struct {
	ID             string     `bson:"_id"`
	OrganisationID string     `bson:"organisationId"`
	CreatedBy      string     `bson:"createdBy"`
	Title          string     `bson:"title"`
	Description    string     `bson:"description,omitempty"`
	Status         string     `bson:"status"`
	Priority       string     `bson:"priority"`
	Tags           []string   `bson:"tags"`
	DueDate        *time.Time `bson:"dueDate,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
	DeletedAt      *time.Time `bson:"deletedAt,omitempty"`
	Version        string     `bson:"version"`
}

func toTodoDoc(t *domain.Todo) todoDoc {
	return todoDoc{
		ID:             t.ID.String(),
		OrganisationID: t.OrganisationID.String(),
		CreatedBy:      t.CreatedBy.String(),
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Tags:           t.Tags,
		DueDate:        t.DueDate,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		DeletedAt:      t.DeletedAt,
		Version:        t.Version,
	}
}

func (d todoDoc) toDomain() (*domain.Todo, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse todo id %q: %w", d.ID, err)
	}
	orgID, err := uuid.Parse(d.OrganisationID)
	if err != nil {
		return nil, fmt.Errorf("parse todo organisation id %q: %w", d.OrganisationID, err)
	}
	createdBy, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("parse todo creator %q: %w", d.CreatedBy, err)
	}

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Todo{
		ID:             id,
		OrganisationID: orgID,
		CreatedBy:      createdBy,
		Title:          d.Title,
		Description:    d.Description,
		Status:         domain.TodoStatus(d.Status),
		Priority:       domain.TodoPriority(d.Priority),
		Tags:           tags,
		DueDate:        d.DueDate,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		DeletedAt:      d.DeletedAt,
		Version:        d.Version,
	}, nil
}

func (s *Store) GetTodoByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc todoDoc
	err := s.todos.FindOne(ctx, bson.M{"_id": id.String(), "organisationId": orgID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return doc.toDomain()
}

// GetTodos fetches the organisation's todos and runs the shared query
// pipeline over them, so filter and sort semantics stay identical across
// every backend.
func (s *Store) GetTodos(ctx context.Context, orgID uuid.UUID, filter domain.TodoFilter) ([]*domain.Todo, int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.todos.Find(ctx, bson.M{"organisationId": orgID.String()})
	if err != nil {
		return nil, 0, fmt.Errorf("find todos: %w", err)
	}
	var docs []todoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode todos: %w", err)
	}

	todos := make([]*domain.Todo, 0, len(docs))
	for _, d := range docs {
		t, err := d.toDomain()
		if err != nil {
			return nil, 0, err
		}
		todos = append(todos, t)
	}

	page, total := query.Apply(todos, filter, time.Now().UTC())
	return page, total, nil
}

func (s *Store) AddTodo(ctx context.Context, todo *domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	todo.Version = uuid.NewString()
	if _, err := s.todos.InsertOne(ctx, toTodoDoc(todo)); err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

// UpdateTodo replaces the document, guarded by the expected version when one
// is supplied. The version comparison runs inside the single ReplaceOne, so
// concurrent writers cannot interleave between check and write.
func (s *Store) UpdateTodo(ctx context.Context, todo *domain.Todo, expectedVersion string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": todo.ID.String(), "organisationId": todo.OrganisationID.String()}
	if expectedVersion != "" {
		filter["version"] = expectedVersion
	}

	todo.Version = uuid.NewString()
	todo.UpdatedAt = time.Now().UTC()

	res, err := s.todos.ReplaceOne(ctx, filter, toTodoDoc(todo))
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.classifyMiss(ctx, todo.ID, todo.OrganisationID)
	}
	return nil
}

func (s *Store) DeleteTodo(ctx context.Context, id, orgID uuid.UUID, expectedVersion string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id.String(), "organisationId": orgID.String()}
	if expectedVersion != "" {
		filter["version"] = expectedVersion
	}

	res, err := s.todos.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return s.classifyMiss(ctx, id, orgID)
	}
	return nil
}

// classifyMiss distinguishes a stale version from a missing todo after a
// guarded write matched nothing.
func (s *Store) classifyMiss(ctx context.Context, id, orgID uuid.UUID) error {
	err := s.todos.FindOne(ctx, bson.M{"_id": id.String(), "organisationId": orgID.String()}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTodoNotFound
	}
	if err != nil {
		return fmt.Errorf("find todo: %w", err)
	}
	return domain.ErrVersionMismatch
}
