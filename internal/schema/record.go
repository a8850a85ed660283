package schema

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Record is one Airtable record.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// Attachment describes a file attached to an Airtable record.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size,omitempty"`
}

// ParseAttachments interprets a raw field value as a list of attachment
// descriptors. It reports false unless every element is an object with a
// url.
func ParseAttachments(value any) ([]Attachment, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}

	attachments := make([]Attachment, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		url, ok := obj["url"].(string)
		if !ok {
			return nil, false
		}
		a := Attachment{URL: url}
		a.ID, _ = obj["id"].(string)
		a.Filename, _ = obj["filename"].(string)
		a.Type, _ = obj["type"].(string)
		if size, ok := obj["size"].(json.Number); ok {
			a.Size, _ = size.Int64()
		}
		attachments = append(attachments, a)
	}
	return attachments, true
}

// ParseRecordIDs interprets a raw field value as a list of linked record ids.
func ParseRecordIDs(value any) ([]string, bool) {
	list, ok := value.([]any)
	if !ok {
		if ids, ok := value.([]string); ok {
			return ids, true
		}
		return nil, false
	}

	ids := make([]string, 0, len(list))
	for _, item := range list {
		id, ok := item.(string)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// DecodeRecord decodes a single record keeping numbers as json.Number.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return Record{}, err
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec, nil
}

// RecordFilePath returns <dir>/<base>/<table>.jsonl.
func RecordFilePath(dir, baseID, table string) string {
	return filepath.Join(dir, baseID, table+".jsonl")
}

// ReadRecordFile streams the records stored in a JSONL file. The file is
// opened when iteration starts and closed when it stops.
func ReadRecordFile(path string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		// #nosec G304 - controlled path from CLI
		file, err := os.Open(path)
		if err != nil {
			yield(Record{}, fmt.Errorf("failed to open record file: %w", err))
			return
		}
		defer file.Close()

		dec := json.NewDecoder(bufio.NewReader(file))
		dec.UseNumber()
		n := 0
		for {
			var rec Record
			if err := dec.Decode(&rec); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(Record{}, fmt.Errorf("invalid JSON in record %d of %s: %w", n+1, path, err))
				return
			}
			n++

			if rec.ID == "" {
				yield(Record{}, fmt.Errorf("record %d of %s has no id", n, path))
				return
			}
			if rec.Fields == nil {
				rec.Fields = map[string]any{}
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// WriteRecordFile drains records into a JSONL file at path. The file is
// written to a temp file and renamed into place, so a failed export never
// leaves a truncated file behind. It returns the number of records written.
func WriteRecordFile(path string, records iter.Seq2[Record, error]) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path from CLI
	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	count, err := writeRecords(file, records)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}
	return count, nil
}

func writeRecords(w io.Writer, records iter.Seq2[Record, error]) (int, error) {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	count := 0
	for rec, err := range records {
		if err != nil {
			return count, err
		}
		if err := enc.Encode(rec); err != nil {
			return count, fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
		}
		count++
	}
	if err := buf.Flush(); err != nil {
		return count, fmt.Errorf("failed to flush records: %w", err)
	}
	return count, nil
}
