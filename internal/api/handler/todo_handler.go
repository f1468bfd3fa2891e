package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// TodoHandler handles HTTP requests for todo operations. Every mutating
// route honours If-Match and returns the new version as an ETag.
type TodoHandler struct {
	service ports.TodoService
}

func NewTodoHandler(service ports.TodoService) *TodoHandler {
	return &TodoHandler{service: service}
}

// List handles GET /v1/todos.
//
// @Summary      List todos in the organisation
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string  true   "Organisation id"
// @Param        status             query     string  false  "Open or Done"
// @Param        overdue            query     bool    false  "Only overdue todos"
// @Param        tag                query     string  false  "Exact tag match"
// @Param        includeDeleted     query     bool    false  "Include soft-deleted todos"
// @Param        page               query     int     false  "Page (1-based)"
// @Param        pageSize           query     int     false  "Page size (1-100)"
// @Param        sortBy             query     string  false  "createdAt, dueDate or priority"
// @Param        sortOrder          query     string  false  "asc or desc"
// @Success      200                {object}  listTodosResponse
// @Failure      400                {object}  errorResponse
// @Failure      403                {object}  errorResponse
// @Router       /v1/todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	orgID, err := ctxOrgID(c)
	if err != nil {
		return err
	}
	filter, err := parseTodoFilter(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), orgID, filter)
	if err != nil {
		return err
	}

	c.Response().Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	return c.JSON(http.StatusOK, toListResponse(page, filter))
}

// Get handles GET /v1/todos/:id.
//
// @Summary      Get a todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string  true  "Organisation id"
// @Param        id                 path      string  true  "Todo id"
// @Success      200                {object}  todoResponse
// @Failure      404                {object}  errorResponse
// @Router       /v1/todos/{id} [get]
func (h *TodoHandler) Get(c echo.Context) error {
	orgID, err := ctxOrgID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	todo, err := h.service.Get(c.Request().Context(), orgID, id)
	if err != nil {
		return err
	}

	setETag(c, todo.Version)
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Create handles POST /v1/todos.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string             true  "Organisation id"
// @Param        body               body      createTodoRequest  true  "Todo details"
// @Success      201                {object}  todoResponse
// @Failure      400                {object}  errorResponse
// @Router       /v1/todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	orgID, err := ctxOrgID(c)
	if err != nil {
		return err
	}
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validTags(req.Tags); err != nil {
		return err
	}

	todo, err := h.service.Create(c.Request().Context(), ports.CreateTodoInput{
		OrganisationID: orgID,
		ActorID:        userID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TodoPriority(req.Priority),
		Tags:           req.Tags,
		DueDate:        req.DueDate,
	})
	if err != nil {
		return err
	}

	setETag(c, todo.Version)
	return c.JSON(http.StatusCreated, toTodoResponse(todo))
}

// Update handles PUT /v1/todos/:id.
//
// @Summary      Update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string             true   "Organisation id"
// @Param        If-Match           header    string             false  "Version token from the last read"
// @Param        id                 path      string             true   "Todo id"
// @Param        body               body      updateTodoRequest  true   "Fields to change"
// @Success      200                {object}  todoResponse
// @Failure      400                {object}  errorResponse
// @Failure      404                {object}  errorResponse
// @Failure      412                {object}  errorResponse
// @Router       /v1/todos/{id} [put]
func (h *TodoHandler) Update(c echo.Context) error {
	in, err := h.mutationInput(c)
	if err != nil {
		return err
	}

	var req updateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Tags != nil {
		if err := validTags(req.Tags); err != nil {
			return err
		}
	}

	update := ports.UpdateTodoInput{
		OrganisationID:  in.OrganisationID,
		ActorID:         in.ActorID,
		ID:              in.ID,
		ExpectedVersion: in.ExpectedVersion,
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
		DueDate:         req.DueDate,
	}
	if req.Priority != nil {
		p := domain.TodoPriority(*req.Priority)
		update.Priority = &p
	}

	todo, err := h.service.Update(c.Request().Context(), update)
	if err != nil {
		return err
	}

	setETag(c, todo.Version)
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Toggle handles POST /v1/todos/:id/toggle.
//
// @Summary      Toggle a todo between Open and Done
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string  true   "Organisation id"
// @Param        If-Match           header    string  false  "Version token from the last read"
// @Param        id                 path      string  true   "Todo id"
// @Success      200                {object}  todoResponse
// @Failure      404                {object}  errorResponse
// @Failure      412                {object}  errorResponse
// @Router       /v1/todos/{id}/toggle [post]
func (h *TodoHandler) Toggle(c echo.Context) error {
	in, err := h.mutationInput(c)
	if err != nil {
		return err
	}

	todo, err := h.service.Toggle(c.Request().Context(), in)
	if err != nil {
		return err
	}

	setETag(c, todo.Version)
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// SoftDelete handles DELETE /v1/todos/:id.
//
// @Summary      Soft-delete a todo
// @Tags         todos
// @Security     BearerAuth
// @Param        X-Organisation-Id  header  string  true   "Organisation id"
// @Param        If-Match           header  string  false  "Version token from the last read"
// @Param        id                 path    string  true   "Todo id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      412  {object}  errorResponse
// @Router       /v1/todos/{id} [delete]
func (h *TodoHandler) SoftDelete(c echo.Context) error {
	in, err := h.mutationInput(c)
	if err != nil {
		return err
	}

	if err := h.service.SoftDelete(c.Request().Context(), in); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Restore handles POST /v1/todos/:id/restore.
//
// @Summary      Restore a soft-deleted todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        X-Organisation-Id  header    string  true   "Organisation id"
// @Param        If-Match           header    string  false  "Version token from the last read"
// @Param        id                 path      string  true   "Todo id"
// @Success      200                {object}  todoResponse
// @Failure      404                {object}  errorResponse
// @Failure      412                {object}  errorResponse
// @Router       /v1/todos/{id}/restore [post]
func (h *TodoHandler) Restore(c echo.Context) error {
	in, err := h.mutationInput(c)
	if err != nil {
		return err
	}

	todo, err := h.service.Restore(c.Request().Context(), in)
	if err != nil {
		return err
	}

	setETag(c, todo.Version)
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// HardDelete handles DELETE /v1/todos/:id/hard. Admin-gated in the router.
//
// @Summary      Permanently delete a todo
// @Tags         todos
// @Security     BearerAuth
// @Param        X-Organisation-Id  header  string  true   "Organisation id"
// @Param        If-Match           header  string  false  "Version token from the last read"
// @Param        id                 path    string  true   "Todo id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      412  {object}  errorResponse
// @Router       /v1/todos/{id}/hard [delete]
func (h *TodoHandler) HardDelete(c echo.Context) error {
	in, err := h.mutationInput(c)
	if err != nil {
		return err
	}

	if err := h.service.HardDelete(c.Request().Context(), in); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TodoHandler) mutationInput(c echo.Context) (ports.TodoMutationInput, error) {
	orgID, err := ctxOrgID(c)
	if err != nil {
		return ports.TodoMutationInput{}, err
	}
	userID, err := ctxUserID(c)
	if err != nil {
		return ports.TodoMutationInput{}, err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return ports.TodoMutationInput{}, err
	}
	return ports.TodoMutationInput{
		OrganisationID:  orgID,
		ActorID:         userID,
		ID:              id,
		ExpectedVersion: ifMatchVersion(c),
	}, nil
}

func validTags(tags []string) error {
	for _, tag := range tags {
		if !domain.ValidTag(tag) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid tag: "+tag)
		}
	}
	return nil
}
