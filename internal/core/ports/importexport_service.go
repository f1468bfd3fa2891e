package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Export/import formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// TodoExportRecord is the flat row shape shared by JSON and CSV round-trips.
type TodoExportRecord struct {
	ClientProvidedID string     `json:"clientProvidedId,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Tags             []string   `json:"tags"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
}

// ImportOptions controls duplicate handling during import.
type ImportOptions struct {
	// Idempotent skips rows whose ClientProvidedID matches an existing todo
	// id in the organisation (soft-deleted ones included).
	Idempotent bool
	// OverwriteExisting, combined with Idempotent, updates the matched todo's
	// mutable fields instead of skipping.
	OverwriteExisting bool
}

// ImportError describes one rejected row. RowNumber is 1-based input order.
type ImportError struct {
	RowNumber        int    `json:"rowNumber"`
	ClientProvidedID string `json:"clientProvidedId,omitempty"`
	Message          string `json:"message"`
}

// ImportResult tallies a whole batch. A row counts as accepted when it was
// created, overwritten, or idempotently skipped.
type ImportResult struct {
	AcceptedCount int           `json:"acceptedCount"`
	RejectedCount int           `json:"rejectedCount"`
	Errors        []ImportError `json:"errors"`
}

// ImportExportService bulk-ingests and bulk-emits todos for one organisation.
type ImportExportService interface {
	Export(ctx context.Context, orgID uuid.UUID, format string) (string, error)
	Import(ctx context.Context, orgID, actorID uuid.UUID, content, format string, opts ImportOptions) (*ImportResult, error)
}
