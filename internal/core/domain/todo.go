package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TodoStatus is the completion state of a todo.
type TodoStatus string

const (
	StatusOpen TodoStatus = "Open"
	StatusDone TodoStatus = "Done"
)

// ParseTodoStatus parses a status name case-insensitively.
func ParseTodoStatus(s string) (TodoStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return StatusOpen, true
	case "done":
		return StatusDone, true
	}
	return "", false
}

// TodoPriority is the urgency of a todo.
type TodoPriority string

const (
	PriorityLow    TodoPriority = "Low"
	PriorityMedium TodoPriority = "Medium"
	PriorityHigh   TodoPriority = "High"
)

// ParseTodoPriority parses a priority name case-insensitively.
func ParseTodoPriority(s string) (TodoPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}
	return "", false
}

// Rank returns the semantic ordering of the priority (Low < Medium < High).
// Sorting must never fall back to lexical string order.
func (p TodoPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	}
	return 1 // unknown values sort with Medium
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxTagLength         = 50
)

var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// ValidTag reports whether a tag satisfies the length and charset rules.
func ValidTag(tag string) bool {
	return len(tag) <= MaxTagLength && tagPattern.MatchString(tag)
}

// Todo is a single task owned by exactly one organisation.
//
// Version is an opaque concurrency token regenerated by the storage layer on
// every successful add/update. Callers never set it directly; they echo the
// last value they saw as the expected version on mutating calls.
type Todo struct {
	ID             uuid.UUID    `json:"id"`
	OrganisationID uuid.UUID    `json:"organisationId"`
	CreatedBy      uuid.UUID    `json:"createdBy"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TodoStatus   `json:"status"`
	Priority       TodoPriority `json:"priority"`
	Tags           []string     `json:"tags"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	DeletedAt      *time.Time   `json:"deletedAt,omitempty"`
	Version        string       `json:"version"`
}

// IsDeleted reports whether the todo carries a soft-delete marker.
func (t *Todo) IsDeleted() bool {
	return t.DeletedAt != nil
}

// Clone returns a deep copy so callers cannot mutate the stored record.
func (t *Todo) Clone() *Todo {
	c := *t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

// TodoFilter carries the query parameters for listing todos.
// Page is 1-based; PageSize <= 0 disables pagination (used by bulk export).
type TodoFilter struct {
	Status         *TodoStatus
	Overdue        *bool
	Tag            string
	IncludeDeleted bool
	Page           int
	PageSize       int
	SortBy         string // createdAt | dueDate | priority; anything else falls back to createdAt
	SortDescending bool
}

// DefaultTodoFilter returns the filter the HTTP layer applies when the client
// supplies no query parameters.
func DefaultTodoFilter() TodoFilter {
	return TodoFilter{
		Page:           1,
		PageSize:       20,
		SortBy:         "createdAt",
		SortDescending: true,
	}
}
