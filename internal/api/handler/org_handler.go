package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// OrganisationHandler handles organisation and membership administration.
type OrganisationHandler struct {
	service ports.OrganisationService
}

func NewOrganisationHandler(service ports.OrganisationService) *OrganisationHandler {
	return &OrganisationHandler{service: service}
}

type createOrganisationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required,oneof=Member OrgAdmin"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=Member OrgAdmin"`
}

type memberResponse struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Create handles POST /v1/organisations.
//
// @Summary      Create an organisation
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrganisationRequest  true  "Organisation details"
// @Success      201   {object}  domain.Organisation
// @Failure      400   {object}  errorResponse
// @Router       /v1/organisations [post]
func (h *OrganisationHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createOrganisationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	org, err := h.service.Create(c.Request().Context(), userID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, org)
}

// List handles GET /v1/organisations and returns the caller's organisations.
//
// @Summary      List my organisations
// @Tags         organisations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Organisation
// @Router       /v1/organisations [get]
func (h *OrganisationHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	orgs, err := h.service.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orgs)
}

// Get handles GET /v1/organisations/:id.
//
// @Summary      Get an organisation
// @Tags         organisations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Organisation id"
// @Success      200  {object}  domain.Organisation
// @Failure      404  {object}  errorResponse
// @Router       /v1/organisations/{id} [get]
func (h *OrganisationHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	org, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, org)
}

// Members handles GET /v1/organisations/:id/members.
//
// @Summary      List organisation members
// @Tags         organisations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Organisation id"
// @Success      200  {array}  memberResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/organisations/{id}/members [get]
func (h *OrganisationHandler) Members(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	memberships, users, err := h.service.Members(c.Request().Context(), id)
	if err != nil {
		return err
	}

	out := make([]memberResponse, 0, len(memberships))
	for _, m := range memberships {
		u := users[m.UserID]
		out = append(out, memberResponse{
			UserID:   m.UserID.String(),
			Username: u.Username,
			Email:    u.Email,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt.UTC(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// AddMember handles POST /v1/organisations/:id/members. Admin-gated.
//
// @Summary      Add a member by email
// @Tags         organisations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Organisation id"
// @Param        body  body      addMemberRequest  true  "Member details"
// @Success      201   {object}  domain.Membership
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/organisations/{id}/members [post]
func (h *OrganisationHandler) AddMember(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	membership, err := h.service.AddMember(c.Request().Context(), userID, id, req.Email, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, membership)
}

// UpdateMemberRole handles PUT /v1/organisations/:id/members/:userId. Admin-gated.
//
// @Summary      Change a member's role
// @Tags         organisations
// @Accept       json
// @Security     BearerAuth
// @Param        id      path  string                   true  "Organisation id"
// @Param        userId  path  string                   true  "Member user id"
// @Param        body    body  updateMemberRoleRequest  true  "New role"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/organisations/{id}/members/{userId} [put]
func (h *OrganisationHandler) UpdateMemberRole(c echo.Context) error {
	actorID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	var req updateMemberRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.UpdateMemberRole(c.Request().Context(), actorID, id, memberID, domain.Role(req.Role)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveMember handles DELETE /v1/organisations/:id/members/:userId. Admin-gated.
//
// @Summary      Remove a member
// @Tags         organisations
// @Security     BearerAuth
// @Param        id      path  string  true  "Organisation id"
// @Param        userId  path  string  true  "Member user id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/organisations/{id}/members/{userId} [delete]
func (h *OrganisationHandler) RemoveMember(c echo.Context) error {
	actorID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	if err := h.service.RemoveMember(c.Request().Context(), actorID, id, memberID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
