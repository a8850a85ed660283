package importer

import (
	"context"
	"iter"

	"github.com/steveyegge/airbridge/internal/schema"
)

// Source yields the records of one Airtable table.
//
// Implemented by *airtable.Client (live API) and airtable.Dir (JSONL
// exports).
type Source interface {
	// Records streams every record of table in baseID. Iteration stops at
	// the first error.
	Records(ctx context.Context, baseID, table string) iter.Seq2[schema.Record, error]
}

// Destination is the part of the Baserow API the importer writes through.
//
// Implemented by *baserow.Client.
type Destination interface {
	// ListFields returns the field schema of a table.
	ListFields(ctx context.Context, tableID int) ([]schema.Field, error)

	// BatchCreate creates rows and returns their ids in input order. The
	// importer relies on that order to pair rows with source records.
	BatchCreate(ctx context.Context, tableID int, items []map[string]any) ([]int, error)

	// BatchUpdate patches rows; every item carries its row "id".
	BatchUpdate(ctx context.Context, tableID int, items []map[string]any) error

	// UploadFile stores a file and returns the name file fields use to
	// reference it.
	UploadFile(ctx context.Context, filename string, content []byte, mimeType string) (string, error)
}

// Fetcher downloads attachment content.
//
// Implemented by *airtable.Client.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Journal records the rows each create batch produced.
//
// Implemented by *journal.Journal.
type Journal interface {
	RecordRows(ctx context.Context, runID, baseID, sourceTable string, tableID int, sourceIDs []string, rowIDs []int) error
}
