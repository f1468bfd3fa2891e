package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// AuditService appends audit entries and serves the filtered read. The
// correlation id is taken from the request context when present.
type AuditService interface {
	Record(ctx context.Context, action, entityType, entityID, details string, actorID uuid.UUID, orgID uuid.UUID) error
	List(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]*domain.AuditLog, error)
}
