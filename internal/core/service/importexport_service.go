package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/api/metrics"
	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/ports"
)

// CSVHeader is the column order of the CSV export, template, and import.
var CSVHeader = []string{"ClientProvidedId", "Title", "Description", "Status", "Priority", "Tags", "DueDate"}

const (
	csvDateLayout = "2006-01-02"
	csvTagSep     = ";"
)

// ImportExportService bulk-emits and bulk-ingests todos. Import processes rows
// sequentially with per-row isolation: one bad row is reported and skipped,
// the rest of the batch still lands.
type ImportExportService struct {
	storage ports.Storage
	audit   ports.AuditService
	log     zerolog.Logger
}

func NewImportExportService(storage ports.Storage, audit ports.AuditService, log zerolog.Logger) *ImportExportService {
	return &ImportExportService{storage: storage, audit: audit, log: log}
}

// Export serialises every non-deleted todo in the organisation, oldest first.
func (s *ImportExportService) Export(ctx context.Context, orgID uuid.UUID, format string) (string, error) {
	filter := domain.TodoFilter{SortBy: "createdAt", PageSize: 0}
	todos, _, err := s.storage.GetTodos(ctx, orgID, filter)
	if err != nil {
		return "", err
	}

	records := make([]ports.TodoExportRecord, 0, len(todos))
	for _, t := range todos {
		records = append(records, ports.TodoExportRecord{
			ClientProvidedID: t.ID.String(),
			Title:            t.Title,
			Description:      t.Description,
			Status:           string(t.Status),
			Priority:         string(t.Priority),
			Tags:             t.Tags,
			DueDate:          t.DueDate,
		})
	}

	switch format {
	case ports.FormatJSON:
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case ports.FormatCSV:
		return encodeCSV(records)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

func (s *ImportExportService) Import(ctx context.Context, orgID, actorID uuid.UUID, content, format string, opts ports.ImportOptions) (*ports.ImportResult, error) {
	var (
		records []ports.TodoExportRecord
		err     error
	)
	switch format {
	case ports.FormatJSON:
		if err = json.Unmarshal([]byte(content), &records); err != nil {
			return nil, fmt.Errorf("parsing import payload: %w", err)
		}
	case ports.FormatCSV:
		records, err = decodeCSV(content)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}

	// Preload the org's todos once, soft-deleted included, so idempotency
	// checks do not hit storage per row. Keyed by the exported id string: a
	// client-provided id is only ever a match key, never a storage id, so an
	// import cannot reach todos outside the target organisation.
	existing := map[string]*domain.Todo{}
	if opts.Idempotent {
		todos, _, err := s.storage.GetTodos(ctx, orgID, domain.TodoFilter{IncludeDeleted: true, PageSize: 0})
		if err != nil {
			return nil, err
		}
		for _, t := range todos {
			existing[t.ID.String()] = t
		}
	}

	result := &ports.ImportResult{Errors: []ports.ImportError{}}
	for i, rec := range records {
		rowNumber := i + 1
		if err := s.importRow(ctx, orgID, actorID, rec, opts, existing); err != nil {
			result.RejectedCount++
			result.Errors = append(result.Errors, ports.ImportError{
				RowNumber:        rowNumber,
				ClientProvidedID: rec.ClientProvidedID,
				Message:          err.Error(),
			})
			metrics.ImportRowsTotal.WithLabelValues("rejected").Inc()
			continue
		}
		result.AcceptedCount++
	}

	if err := s.audit.Record(ctx, "TodosImported", "Todo", "",
		fmt.Sprintf("Imported %d todos, %d rejected", result.AcceptedCount, result.RejectedCount),
		actorID, orgID); err != nil {
		s.log.Warn().Err(err).Msg("failed to write audit entry")
	}
	s.log.Info().
		Str("org_id", orgID.String()).
		Int("accepted", result.AcceptedCount).
		Int("rejected", result.RejectedCount).
		Msg("import finished")

	return result, nil
}

// importRow validates and applies one record. The returned error text is
// surfaced verbatim to the client.
func (s *ImportExportService) importRow(ctx context.Context, orgID, actorID uuid.UUID, rec ports.TodoExportRecord, opts ports.ImportOptions, existing map[string]*domain.Todo) error {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return fmt.Errorf("Title is required")
	}
	if len(title) > domain.MaxTitleLength {
		return fmt.Errorf("Title exceeds %d characters", domain.MaxTitleLength)
	}
	if len(rec.Description) > domain.MaxDescriptionLength {
		return fmt.Errorf("Description exceeds %d characters", domain.MaxDescriptionLength)
	}

	status := domain.StatusOpen
	if rec.Status != "" {
		parsed, ok := domain.ParseTodoStatus(rec.Status)
		if !ok {
			return fmt.Errorf("Invalid status: %s. Must be Open or Done", rec.Status)
		}
		status = parsed
	}

	priority := domain.PriorityMedium
	if rec.Priority != "" {
		parsed, ok := domain.ParseTodoPriority(rec.Priority)
		if !ok {
			return fmt.Errorf("Invalid priority: %s. Must be Low, Medium or High", rec.Priority)
		}
		priority = parsed
	}

	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	for _, tag := range tags {
		if !domain.ValidTag(tag) {
			return fmt.Errorf("Invalid tag: %s", tag)
		}
	}

	clientID := strings.TrimSpace(rec.ClientProvidedID)
	if prev, ok := existing[clientID]; ok && clientID != "" && opts.Idempotent {
		if !opts.OverwriteExisting {
			metrics.ImportRowsTotal.WithLabelValues("skipped").Inc()
			return nil
		}
		updated := prev.Clone()
		updated.Title = title
		updated.Description = rec.Description
		updated.Status = status
		updated.Priority = priority
		updated.Tags = tags
		updated.DueDate = rec.DueDate
		// Unconditional write: the import is the source of truth for the row.
		if err := s.storage.UpdateTodo(ctx, updated, ""); err != nil {
			return err
		}
		existing[clientID] = updated
		metrics.ImportRowsTotal.WithLabelValues("overwritten").Inc()
		return nil
	}

	now := time.Now().UTC()
	todo := &domain.Todo{
		ID:             uuid.New(),
		OrganisationID: orgID,
		CreatedBy:      actorID,
		Title:          title,
		Description:    rec.Description,
		Status:         status,
		Priority:       priority,
		Tags:           tags,
		DueDate:        rec.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.storage.AddTodo(ctx, todo); err != nil {
		return err
	}
	if clientID != "" {
		// Register under the client's key so a duplicate row later in the
		// same batch hits the idempotency path.
		existing[clientID] = todo
	}
	metrics.ImportRowsTotal.WithLabelValues("created").Inc()
	return nil
}

func encodeCSV(records []ports.TodoExportRecord) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(CSVHeader); err != nil {
		return "", err
	}
	for _, rec := range records {
		due := ""
		if rec.DueDate != nil {
			due = rec.DueDate.Format(csvDateLayout)
		}
		row := []string{
			rec.ClientProvidedID,
			rec.Title,
			rec.Description,
			rec.Status,
			rec.Priority,
			strings.Join(rec.Tags, csvTagSep),
			due,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

// decodeCSV parses a full CSV payload including the header row. Column order
// must match CSVHeader; the match is case-insensitive.
func decodeCSV(content string) ([]ports.TodoExportRecord, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing import payload: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("import payload is empty")
	}

	header := rows[0]
	if len(header) != len(CSVHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(CSVHeader), len(header))
	}
	for i, name := range CSVHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("unexpected column %q, expected %q", header[i], name)
		}
	}

	records := make([]ports.TodoExportRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// Ragged rows must not abort the batch: too-short ones are dropped,
		// extra columns ignored.
		if len(row) < len(CSVHeader) {
			continue
		}
		rec := ports.TodoExportRecord{
			ClientProvidedID: row[0],
			Title:            row[1],
			Description:      row[2],
			Status:           row[3],
			Priority:         row[4],
			Tags:             splitTags(row[5]),
		}
		if due := strings.TrimSpace(row[6]); due != "" {
			// An unparseable date imports as no due date.
			if parsed, err := parseDueDate(due); err == nil {
				rec.DueDate = &parsed
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, csvTagSep) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(csvDateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
