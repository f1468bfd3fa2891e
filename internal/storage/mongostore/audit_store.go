package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/taskhub/internal/core/domain"
)

type auditDoc struct {
	ID             string    `bson:"_id"`
	Timestamp      time.Time `bson:"timestamp"`
	ActorUserID    string    `bson:"actorUserId"`
	OrganisationID string    `bson:"organisationId,omitempty"`
	ActionType     string    `bson:"actionType"`
	EntityType     string    `bson:"entityType"`
	EntityID       string    `bson:"entityId"`
	Details        string    `bson:"details,omitempty"`
	CorrelationID  string    `bson:"correlationId,omitempty"`
}

func toAuditDoc(a *domain.AuditLog) auditDoc {
	doc := auditDoc{
		ID:            a.ID.String(),
		Timestamp:     a.Timestamp,
		ActorUserID:   a.ActorUserID.String(),
		ActionType:    a.ActionType,
		EntityType:    a.EntityType,
		EntityID:      a.EntityID,
		Details:       a.Details,
		CorrelationID: a.CorrelationID,
	}
	if a.OrganisationID != nil {
		doc.OrganisationID = a.OrganisationID.String()
	}
	return doc
}

func (d auditDoc) toDomain() (*domain.AuditLog, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse audit id %q: %w", d.ID, err)
	}
	actorID, err := uuid.Parse(d.ActorUserID)
	if err != nil {
		return nil, fmt.Errorf("parse audit actor %q: %w", d.ActorUserID, err)
	}

	entry := &domain.AuditLog{
		ID:            id,
		Timestamp:     d.Timestamp,
		ActorUserID:   actorID,
		ActionType:    d.ActionType,
		EntityType:    d.EntityType,
		EntityID:      d.EntityID,
		Details:       d.Details,
		CorrelationID: d.CorrelationID,
	}
	if d.OrganisationID != "" {
		orgID, err := uuid.Parse(d.OrganisationID)
		if err != nil {
			return nil, fmt.Errorf("parse audit organisation %q: %w", d.OrganisationID, err)
		}
		entry.OrganisationID = &orgID
	}
	return entry, nil
}

func (s *Store) AddAuditLog(ctx context.Context, log *domain.AuditLog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.auditLogs.InsertOne(ctx, toAuditDoc(log)); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditLogs(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]*domain.AuditLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"organisationId": orgID.String()}
	ts := bson.M{}
	if from != nil {
		ts["$gte"] = *from
	}
	if to != nil {
		ts["$lte"] = *to
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.auditLogs.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit entries: %w", err)
	}
	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}

	entries := make([]*domain.AuditLog, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
