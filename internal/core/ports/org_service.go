package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// OrganisationService covers organisation and membership administration.
type OrganisationService interface {
	// Create stores the organisation and grants the creator an OrgAdmin
	// membership in the same logical operation.
	Create(ctx context.Context, actorID uuid.UUID, name string) (*domain.Organisation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Organisation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Organisation, error)
	Members(ctx context.Context, orgID uuid.UUID) ([]*domain.Membership, map[uuid.UUID]*domain.User, error)
	// AddMember resolves the user by email; a missing user or an existing
	// membership is a conflict, reported distinctly from not-found.
	AddMember(ctx context.Context, actorID, orgID uuid.UUID, email string, role domain.Role) (*domain.Membership, error)
	// UpdateMemberRole and RemoveMember reject self-modification to prevent
	// admins locking themselves out.
	UpdateMemberRole(ctx context.Context, actorID, orgID, userID uuid.UUID, role domain.Role) error
	RemoveMember(ctx context.Context, actorID, orgID, userID uuid.UUID) error
}

// OrganisationContext answers the two membership questions the access-control
// layer gates every organisation-scoped request on.
type OrganisationContext interface {
	IsMember(ctx context.Context, userID, orgID uuid.UUID) (bool, error)
	IsOrgAdmin(ctx context.Context, userID, orgID uuid.UUID) (bool, error)
}
