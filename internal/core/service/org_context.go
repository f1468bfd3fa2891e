package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// OrgContext answers membership questions for the access-control middleware.
type OrgContext struct {
	storage ports.Storage
}

func NewOrgContext(storage ports.Storage) *OrgContext {
	return &OrgContext{storage: storage}
}

func (c *OrgContext) IsMember(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	_, err := c.storage.GetMembership(ctx, userID, orgID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *OrgContext) IsOrgAdmin(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	m, err := c.storage.GetMembership(ctx, userID, orgID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Role == domain.RoleOrgAdmin, nil
}
