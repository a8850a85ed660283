package importer

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/steveyegge/airbridge/internal/baserow"
	"github.com/steveyegge/airbridge/internal/convert"
)

// Options configures an Importer.
type Options struct {
	// BatchSize is the number of rows per create or update request,
	// 1..baserow.MaxBatchSize.
	BatchSize int

	// Overrides replace the built-in conversion of individual Baserow
	// fields, by field id. They win over overrides named in the field map.
	Overrides map[int]convert.Override

	// Converter runs the built-in conversions. Nil means convert.New().
	Converter *convert.Converter

	// Logger receives progress. Nil means no logging.
	Logger *zerolog.Logger

	// Journal, when set, records every created row.
	Journal Journal

	// RunID tags log lines and journal entries. Empty means a new UUID.
	RunID string
}

// DefaultOptions returns options with the largest batch size Baserow
// allows.
func DefaultOptions() Options {
	return Options{
		BatchSize: baserow.MaxBatchSize,
	}
}

func (o Options) withDefaults() Options {
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	if o.Converter == nil {
		o.Converter = convert.New()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// BaseResult counts the work done for one base.
type BaseResult struct {
	BaseID          string `json:"base_id"`
	Tables          int    `json:"tables"`
	RecordsCreated  int    `json:"records_created"`
	CreateBatches   int    `json:"create_batches"`
	LinkRowsPatched int    `json:"link_rows_patched"`
	LinkBatches     int    `json:"link_batches"`
	FilesUploaded   int    `json:"files_uploaded"`
	FileRowsPatched int    `json:"file_rows_patched"`
	FileBatches     int    `json:"file_batches"`
}

// Result is the outcome of Run. On error it holds the bases processed so
// far, including the partial counts of the one that failed.
type Result struct {
	RunID string       `json:"run_id"`
	Bases []BaseResult `json:"bases"`
}

// Totals sums the counts of every base.
func (r Result) Totals() BaseResult {
	var t BaseResult
	for _, b := range r.Bases {
		t.Tables += b.Tables
		t.RecordsCreated += b.RecordsCreated
		t.CreateBatches += b.CreateBatches
		t.LinkRowsPatched += b.LinkRowsPatched
		t.LinkBatches += b.LinkBatches
		t.FilesUploaded += b.FilesUploaded
		t.FileRowsPatched += b.FileRowsPatched
		t.FileBatches += b.FileBatches
	}
	return t
}
