package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/core/ports"
)

// OrgHeader carries the organisation a request operates in. The query
// parameter is an alternative for clients that cannot set headers.
const (
	OrgHeader     = "X-Organisation-Id"
	OrgQueryParam = "organisationId"
)

// Organisation resolves the target organisation and verifies the
// authenticated user is a member before letting the request through. The
// resolved id lands in context as "org_id".
func Organisation(orgCtx ports.OrganisationContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			orgID, err := resolveOrgID(c)
			if err != nil {
				return err
			}

			userID, ok := c.Get("user_id").(uuid.UUID)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			member, err := orgCtx.IsMember(c.Request().Context(), userID, orgID)
			if err != nil {
				return err
			}
			if !member {
				return echo.NewHTTPError(http.StatusForbidden, "not a member of this organisation")
			}

			c.Set("org_id", orgID)
			return next(c)
		}
	}
}

// RequireOrgAdmin gates admin-only operations. It must run after
// Organisation, which has already proven membership.
func RequireOrgAdmin(orgCtx ports.OrganisationContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(uuid.UUID)
			orgID, ok := c.Get("org_id").(uuid.UUID)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "organisation not resolved")
			}

			admin, err := orgCtx.IsOrgAdmin(c.Request().Context(), userID, orgID)
			if err != nil {
				return err
			}
			if !admin {
				return echo.NewHTTPError(http.StatusForbidden, "requires organisation admin role")
			}
			return next(c)
		}
	}
}

func resolveOrgID(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(OrgHeader)
	if raw == "" {
		raw = c.QueryParam(OrgQueryParam)
	}
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "missing organisation id")
	}
	orgID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid organisation id")
	}
	return orgID, nil
}
