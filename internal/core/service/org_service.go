package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// OrganisationService implements organisation and membership administration.
type OrganisationService struct {
	storage ports.Storage
	audit   ports.AuditService
	log     zerolog.Logger
}

func NewOrganisationService(storage ports.Storage, audit ports.AuditService, log zerolog.Logger) *OrganisationService {
	return &OrganisationService{storage: storage, audit: audit, log: log}
}

// Create stores the organisation and grants the creator an OrgAdmin
// membership. The two writes are separate atomic operations, not one
// transaction; a crash between them is an acknowledged gap.
func (s *OrganisationService) Create(ctx context.Context, actorID uuid.UUID, name string) (*domain.Organisation, error) {
	now := time.Now().UTC()
	org := &domain.Organisation{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		CreatedBy: actorID,
	}
	if err := s.storage.AddOrganisation(ctx, org); err != nil {
		return nil, err
	}

	membership := &domain.Membership{
		UserID:         actorID,
		OrganisationID: org.ID,
		Role:           domain.RoleOrgAdmin,
		JoinedAt:       now,
	}
	if err := s.storage.AddMembership(ctx, membership); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "OrganisationCreated", "Organisation", org.ID.String(),
		fmt.Sprintf("Organisation %q created", org.Name), actorID, org.ID)
	s.log.Info().Str("org_id", org.ID.String()).Str("user_id", actorID.String()).Msg("organisation created")

	return org, nil
}

func (s *OrganisationService) Get(ctx context.Context, id uuid.UUID) (*domain.Organisation, error) {
	return s.storage.GetOrganisationByID(ctx, id)
}

func (s *OrganisationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Organisation, error) {
	return s.storage.GetUserOrganisations(ctx, userID)
}

// Members returns the org's memberships plus the users they resolve to.
// Memberships whose user record is missing are skipped.
func (s *OrganisationService) Members(ctx context.Context, orgID uuid.UUID) ([]*domain.Membership, map[uuid.UUID]*domain.User, error) {
	memberships, err := s.storage.GetOrganisationMemberships(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	users := make(map[uuid.UUID]*domain.User, len(memberships))
	kept := memberships[:0]
	for _, m := range memberships {
		user, err := s.storage.GetUserByID(ctx, m.UserID)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		users[m.UserID] = user
		kept = append(kept, m)
	}
	return kept, users, nil
}

func (s *OrganisationService) AddMember(ctx context.Context, actorID, orgID uuid.UUID, email string, role domain.Role) (*domain.Membership, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.GetMembership(ctx, user.ID, orgID); err == nil {
		return nil, domain.ErrMembershipExists
	} else if !errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, err
	}

	membership := &domain.Membership{
		UserID:         user.ID,
		OrganisationID: orgID,
		Role:           role,
		JoinedAt:       time.Now().UTC(),
	}
	if err := s.storage.AddMembership(ctx, membership); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "MemberAdded", "Membership", domain.MembershipKey(user.ID, orgID),
		fmt.Sprintf("User %s added as %s", user.Username, role), actorID, orgID)

	return membership, nil
}

func (s *OrganisationService) UpdateMemberRole(ctx context.Context, actorID, orgID, userID uuid.UUID, role domain.Role) error {
	// Admins cannot change their own role (prevents self-lockout).
	if actorID == userID {
		return domain.ErrSelfMembership
	}

	membership, err := s.storage.GetMembership(ctx, userID, orgID)
	if err != nil {
		return err
	}

	oldRole := membership.Role
	membership.Role = role
	if err := s.storage.UpdateMembership(ctx, membership); err != nil {
		return err
	}

	s.recordAudit(ctx, "MemberRoleChanged", "Membership", domain.MembershipKey(userID, orgID),
		fmt.Sprintf("Role changed from %s to %s", oldRole, role), actorID, orgID)
	return nil
}

func (s *OrganisationService) RemoveMember(ctx context.Context, actorID, orgID, userID uuid.UUID) error {
	if actorID == userID {
		return domain.ErrSelfMembership
	}

	if _, err := s.storage.GetMembership(ctx, userID, orgID); err != nil {
		return err
	}
	if err := s.storage.RemoveMembership(ctx, userID, orgID); err != nil {
		return err
	}

	s.recordAudit(ctx, "MemberRemoved", "Membership", domain.MembershipKey(userID, orgID),
		fmt.Sprintf("User %s removed from organisation", userID), actorID, orgID)
	return nil
}

func (s *OrganisationService) recordAudit(ctx context.Context, action, entityType, entityID, details string, actorID, orgID uuid.UUID) {
	if err := s.audit.Record(ctx, action, entityType, entityID, details, actorID, orgID); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}
