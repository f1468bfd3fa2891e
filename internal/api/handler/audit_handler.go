package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/core/ports"
)

// AuditHandler serves the organisation's audit trail.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /v1/audit. Admin-gated.
//
// @Summary      List audit entries for the organisation
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string  true   "Organisation id"
// @Param        from               query     string  false  "RFC3339 lower bound (inclusive)"
// @Param        to                 query     string  false  "RFC3339 upper bound (inclusive)"
// @Success      200                {array}   domain.AuditLog
// @Failure      400                {object}  errorResponse
// @Failure      403                {object}  errorResponse
// @Router       /v1/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	orgID, err := ctxOrgID(c)
	if err != nil {
		return err
	}

	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}

	entries, err := h.service.List(c.Request().Context(), orgID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" timestamp")
	}
	return &t, nil
}
