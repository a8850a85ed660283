package schema

import (
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(records ...Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func TestDecodeRecord_KeepsNumbers(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id":"rec1","fields":{"Price":12.50,"Tags":["a","b"]}}`))
	require.NoError(t, err)

	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, json.Number("12.50"), rec.Fields["Price"])
	assert.Equal(t, []any{"a", "b"}, rec.Fields["Tags"])
}

func TestParseAttachments(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id":"rec1","fields":{"Docs":[
		{"id":"att1","url":"https://dl.example/a.pdf","filename":"a.pdf","type":"application/pdf","size":1024}
	]}}`))
	require.NoError(t, err)

	atts, ok := ParseAttachments(rec.Fields["Docs"])
	require.True(t, ok)
	require.Len(t, atts, 1)
	assert.Equal(t, Attachment{
		ID:       "att1",
		URL:      "https://dl.example/a.pdf",
		Filename: "a.pdf",
		Type:     "application/pdf",
		Size:     1024,
	}, atts[0])

	_, ok = ParseAttachments([]any{"recXYZ"})
	assert.False(t, ok, "strings are not attachments")

	_, ok = ParseAttachments([]any{map[string]any{"filename": "no-url.txt"}})
	assert.False(t, ok, "descriptor without url")

	_, ok = ParseAttachments("https://dl.example/a.pdf")
	assert.False(t, ok, "scalar value")

	atts, ok = ParseAttachments([]any{})
	assert.True(t, ok)
	assert.Empty(t, atts)
}

func TestParseRecordIDs(t *testing.T) {
	ids, ok := ParseRecordIDs([]any{"recA", "recB"})
	require.True(t, ok)
	assert.Equal(t, []string{"recA", "recB"}, ids)

	_, ok = ParseRecordIDs([]any{"recA", json.Number("3")})
	assert.False(t, ok)

	_, ok = ParseRecordIDs("recA")
	assert.False(t, ok)
}

func TestRecordFile_WriteThenRead(t *testing.T) {
	path := RecordFilePath(t.TempDir(), "appBase", "Tasks")

	n, err := WriteRecordFile(path, seqOf(
		Record{ID: "rec1", Fields: map[string]any{"Name": "one"}},
		Record{ID: "rec2", Fields: map[string]any{"Name": "two", "Count": json.Number("3")}},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	var got []Record
	for rec, err := range ReadRecordFile(path) {
		require.NoError(t, err)
		got = append(got, rec)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "rec2", got[1].ID)
	assert.Equal(t, json.Number("3"), got[1].Fields["Count"])
}

func TestWriteRecordFile_SourceErrorLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base", "table.jsonl")
	boom := errors.New("page fetch failed")

	_, err := WriteRecordFile(path, func(yield func(Record, error) bool) {
		if !yield(Record{ID: "rec1", Fields: map[string]any{}}, nil) {
			return
		}
		yield(Record{}, boom)
	})
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadRecordFile_Errors(t *testing.T) {
	dir := t.TempDir()

	for _, err := range ReadRecordFile(filepath.Join(dir, "missing.jsonl")) {
		require.Error(t, err)
	}

	bad := filepath.Join(dir, "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{\"id\":\"rec1\",\"fields\":{}}\n{invalid json}\n"), 0600))

	var ids []string
	var lastErr error
	for rec, err := range ReadRecordFile(bad) {
		if err != nil {
			lastErr = err
			continue
		}
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"rec1"}, ids)
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "record 2")
}

func TestReadRecordFile_CountsRecordsNotLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.jsonl")
	data := "{\n  \"id\": \"rec1\",\n  \"fields\": {}\n}\n\n{\"fields\": {}}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	var lastErr error
	for _, err := range ReadRecordFile(path) {
		lastErr = err
	}
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "record 2 of")
}
