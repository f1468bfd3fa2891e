package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ctxUserID extracts the authenticated user id injected by the Auth
// middleware. Absence means the route was wired without it; fail closed.
func ctxUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// ctxOrgID extracts the organisation resolved by the Organisation middleware.
func ctxOrgID(c echo.Context) (uuid.UUID, error) {
	orgID, ok := c.Get("org_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "missing organisation id")
	}
	return orgID, nil
}

// pathUUID parses a :param path segment as a UUID.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ifMatchVersion reads the If-Match header and strips the quoting an ETag
// carries. Absent header or "*" means the mutation runs unconditionally.
func ifMatchVersion(c echo.Context) string {
	raw := strings.TrimSpace(c.Request().Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return ""
	}
	return strings.Trim(raw, `"`)
}

// setETag writes the todo's version token as a strong ETag.
func setETag(c echo.Context, version string) {
	c.Response().Header().Set("ETag", `"`+version+`"`)
}
