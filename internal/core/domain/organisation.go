package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organisation is the tenant boundary; every todo belongs to exactly one.
type Organisation struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy uuid.UUID `json:"createdBy"`
}

// Role of a user inside an organisation.
type Role string

const (
	RoleMember   Role = "Member"
	RoleOrgAdmin Role = "OrgAdmin"
)

// Membership links a user to an organisation. At most one membership exists
// per (user, organisation) pair.
type Membership struct {
	UserID         uuid.UUID `json:"userId"`
	OrganisationID uuid.UUID `json:"organisationId"`
	Role           Role      `json:"role"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// MembershipKey is the canonical map key for a membership pair.
func MembershipKey(userID, orgID uuid.UUID) string {
	return userID.String() + ":" + orgID.String()
}
