package file

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/core/domain"
)

// LatestSchemaVersion is the document version this build reads and writes.
const LatestSchemaVersion = 2

// migrationStep upgrades a document from exactly `from` to `from+1`. Each
// step is total over the whole document and safe to re-run.
type migrationStep struct {
	from  int
	apply func(*Document)
}

var migrations = []migrationStep{
	// v0 -> v1: todos written before optimistic concurrency existed carry no
	// version token; generate one so If-Match comparisons work.
	{from: 0, apply: func(d *Document) {
		for _, t := range d.Todos {
			if t.Version == "" {
				t.Version = uuid.NewString()
			}
		}
	}},
	// v1 -> v2: normalise absent tag lists to empty slices so every consumer
	// can range over Tags without a nil check.
	{from: 1, apply: func(d *Document) {
		for _, t := range d.Todos {
			if t.Tags == nil {
				t.Tags = []string{}
			}
		}
	}},
}

// Migrate upgrades doc in place to LatestSchemaVersion, applying every
// intervening step in order. A document already at the latest version is left
// unchanged; a document from a newer build is rejected, never downgraded.
func Migrate(doc *Document) error {
	if doc.SchemaVersion > LatestSchemaVersion {
		return fmt.Errorf("document at schema v%d, latest known is v%d: %w",
			doc.SchemaVersion, LatestSchemaVersion, domain.ErrSchemaTooNew)
	}
	for _, step := range migrations {
		if doc.SchemaVersion == step.from {
			step.apply(doc)
			doc.SchemaVersion = step.from + 1
		}
	}
	return nil
}
