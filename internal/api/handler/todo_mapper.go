package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// --- Service result → HTTP response ---

func toTodoResponse(t *domain.Todo) todoResponse {
	return todoResponse{
		ID:             t.ID.String(),
		OrganisationID: t.OrganisationID.String(),
		CreatedBy:      t.CreatedBy.String(),
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Tags:           t.Tags,
		DueDate:        t.DueDate,
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
		DeletedAt:      t.DeletedAt,
		Version:        t.Version,
	}
}

func toListResponse(page *ports.TodoPage, filter domain.TodoFilter) listTodosResponse {
	items := make([]todoResponse, len(page.Items))
	for i, t := range page.Items {
		items[i] = toTodoResponse(t)
	}
	return listTodosResponse{
		Data:     items,
		Total:    page.Total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
}

// --- Query string → filter ---

// parseTodoFilter reads the list query parameters on top of the defaults.
func parseTodoFilter(c echo.Context) (domain.TodoFilter, error) {
	filter := domain.DefaultTodoFilter()

	if raw := c.QueryParam("status"); raw != "" {
		status, ok := domain.ParseTodoStatus(raw)
		if !ok {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid overdue filter")
		}
		filter.Overdue = &overdue
	}
	filter.Tag = c.QueryParam("tag")

	if raw := c.QueryParam("includeDeleted"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid includeDeleted filter")
		}
		filter.IncludeDeleted = include
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > 100 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "pageSize must be between 1 and 100")
		}
		filter.PageSize = size
	}

	if raw := c.QueryParam("sortBy"); raw != "" {
		switch raw {
		case "createdAt", "dueDate", "priority":
			filter.SortBy = raw
		default:
			return filter, echo.NewHTTPError(http.StatusBadRequest, "sortBy must be createdAt, dueDate or priority")
		}
	}
	if raw := c.QueryParam("sortOrder"); raw != "" {
		switch raw {
		case "asc":
			filter.SortDescending = false
		case "desc":
			filter.SortDescending = true
		default:
			return filter, echo.NewHTTPError(http.StatusBadRequest, "sortOrder must be asc or desc")
		}
	}

	return filter, nil
}
