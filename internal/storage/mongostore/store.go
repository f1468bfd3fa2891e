// Package mongostore is the MongoDB storage backend. Entity ids are stored
// as their canonical string form so documents stay readable in the shell.
package mongostore

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers         = "users"
	collectionOrganisations = "organisations"
	collectionMemberships   = "memberships"
	collectionTodos         = "todos"
	collectionAuditLogs     = "audit_logs"

	defaultTimeout = 10 * time.Second
)

// Store implements the full storage interface on MongoDB.
type Store struct {
	users         *mongo.Collection
	organisations *mongo.Collection
	memberships   *mongo.Collection
	todos         *mongo.Collection
	auditLogs     *mongo.Collection
	log           zerolog.Logger
}

func New(db *mongo.Database, log zerolog.Logger) *Store {
	return &Store{
		users:         db.Collection(collectionUsers),
		organisations: db.Collection(collectionOrganisations),
		memberships:   db.Collection(collectionMemberships),
		todos:         db.Collection(collectionTodos),
		auditLogs:     db.Collection(collectionAuditLogs),
		log:           log,
	}
}

// EnsureIndexes creates the indexes every query path relies on. Safe to call
// on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return err
	}

	if _, err := s.memberships.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "organisationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "organisationId", Value: 1}}},
	}); err != nil {
		return err
	}

	if _, err := s.todos.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organisationId", Value: 1}}},
		{Keys: bson.D{{Key: "organisationId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return err
	}

	_, err := s.auditLogs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organisationId", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}
