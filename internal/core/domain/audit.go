package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a mutating action. Entries are never
// updated or removed.
type AuditLog struct {
	ID             uuid.UUID  `json:"id"`
	Timestamp      time.Time  `json:"timestamp"`
	ActorUserID    uuid.UUID  `json:"actorUserId"`
	OrganisationID *uuid.UUID `json:"organisationId,omitempty"`
	ActionType     string     `json:"actionType"`
	EntityType     string     `json:"entityType"`
	EntityID       string     `json:"entityId"`
	Details        string     `json:"details,omitempty"`
	CorrelationID  string     `json:"correlationId"`
}
