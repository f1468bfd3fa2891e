package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createTodoRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"dueDate"`
}

// updateTodoRequest uses pointers so an absent field is distinguishable from
// an explicit zero value; only supplied fields change.
type updateTodoRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"dueDate"`
}

// todoResponse is the transport shape of a todo. Version doubles as the ETag
// value so clients can echo it in If-Match.
type todoResponse struct {
	ID             string     `json:"id"`
	OrganisationID string     `json:"organisationId"`
	CreatedBy      string     `json:"createdBy"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Tags           []string   `json:"tags"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
	Version        string     `json:"version"`
}

type listTodosResponse struct {
	Data     []todoResponse `json:"data"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
