package airtable

import (
	"context"
	"iter"

	"github.com/steveyegge/airbridge/internal/schema"
)

// Dir reads tables from JSONL exports laid out as <Path>/<base>/<table>.jsonl.
type Dir struct {
	Path string
}

// Records streams the exported records of a table.
func (d Dir) Records(_ context.Context, baseID, table string) iter.Seq2[schema.Record, error] {
	return schema.ReadRecordFile(schema.RecordFilePath(d.Path, baseID, table))
}

// Export writes every record of a table to <dir>/<base>/<table>.jsonl and
// returns the number of records written. Attachment URLs in the export are
// signed by Airtable and expire, so import exports soon after taking them.
func (c *Client) Export(ctx context.Context, dir, baseID, table string) (int, error) {
	return schema.WriteRecordFile(schema.RecordFilePath(dir, baseID, table), c.Records(ctx, baseID, table))
}
