// Package query implements the per-organisation todo filtering, sorting and
// pagination pipeline shared by the in-memory and file storage backends.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// Apply runs the fixed filter pipeline over todos already scoped to one
// organisation and returns the requested page plus the post-filter,
// pre-pagination total.
//
// Pipeline order: soft-delete filter, status, overdue, tag, sort, paginate.
func Apply(todos []*domain.Todo, f domain.TodoFilter, now time.Time) ([]*domain.Todo, int) {
	matched := make([]*domain.Todo, 0, len(todos))
	for _, t := range todos {
		if !f.IncludeDeleted && t.IsDeleted() {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Overdue != nil && *f.Overdue {
			if t.DueDate == nil || !t.DueDate.Before(now) || t.Status == domain.StatusDone {
				continue
			}
		}
		if f.Tag != "" && !hasTag(t, f.Tag) {
			continue
		}
		matched = append(matched, t)
	}

	sortTodos(matched, f)
	total := len(matched)

	return paginate(matched, f.Page, f.PageSize), total
}

// hasTag is an exact, case-sensitive match on a single tag value.
func hasTag(t *domain.Todo, tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

func sortTodos(todos []*domain.Todo, f domain.TodoFilter) {
	var less func(a, b *domain.Todo) bool

	switch strings.ToLower(f.SortBy) {
	case "duedate":
		less = func(a, b *domain.Todo) bool {
			// Todos without a due date sort last in ascending order.
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return false
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			}
			return a.DueDate.Before(*b.DueDate)
		}
	case "priority":
		less = func(a, b *domain.Todo) bool {
			return a.Priority.Rank() < b.Priority.Rank()
		}
	default: // "createdat" and unrecognised values
		less = func(a, b *domain.Todo) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(todos, func(i, j int) bool {
		if f.SortDescending {
			return less(todos[j], todos[i])
		}
		return less(todos[i], todos[j])
	})
}

// paginate applies 1-based page windowing. PageSize <= 0 disables pagination
// so bulk callers (export, import preload) see the whole result set.
func paginate(todos []*domain.Todo, page, pageSize int) []*domain.Todo {
	if pageSize <= 0 {
		return todos
	}
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * pageSize
	if skip >= len(todos) {
		return []*domain.Todo{}
	}
	end := skip + pageSize
	if end > len(todos) {
		end = len(todos)
	}
	return todos[skip:end]
}
