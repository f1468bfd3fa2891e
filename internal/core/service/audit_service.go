package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

type correlationIDKey struct{}

// WithCorrelationID stashes the request's correlation id in the context so
// audit entries written anywhere below the handler pick it up.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the stashed correlation id, or "" when the
// write did not originate from an HTTP request.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// AuditService appends audit entries to storage. Entries are immutable once
// written.
type AuditService struct {
	storage ports.Storage
	log     zerolog.Logger
}

func NewAuditService(storage ports.Storage, log zerolog.Logger) *AuditService {
	return &AuditService{storage: storage, log: log}
}

func (s *AuditService) Record(ctx context.Context, action, entityType, entityID, details string, actorID uuid.UUID, orgID uuid.UUID) error {
	entry := &domain.AuditLog{
		ID:            uuid.New(),
		Timestamp:     time.Now().UTC(),
		ActorUserID:   actorID,
		ActionType:    action,
		EntityType:    entityType,
		EntityID:      entityID,
		Details:       details,
		CorrelationID: CorrelationIDFromContext(ctx),
	}
	if orgID != uuid.Nil {
		entry.OrganisationID = &orgID
	}
	if err := s.storage.AddAuditLog(ctx, entry); err != nil {
		return err
	}

	s.log.Debug().
		Str("action", action).
		Str("entity_type", entityType).
		Str("entity_id", entityID).
		Str("actor_id", actorID.String()).
		Msg("audit entry recorded")
	return nil
}

func (s *AuditService) List(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]*domain.AuditLog, error) {
	return s.storage.GetAuditLogs(ctx, orgID, from, to)
}
