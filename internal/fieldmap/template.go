package fieldmap

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Template returns a skeleton field map with placeholder keys.
func Template() *FieldMap {
	return &FieldMap{
		Bases: map[string]Base{
			"(Airtable Base ID)": {
				Tables: map[string]Table{
					"(Airtable Table ID/Name)": {
						ID: 1,
						Fields: map[string]int{
							"(Airtable Field ID/Name)": 1,
						},
					},
				},
			},
		},
	}
}

// WriteTemplate writes fm to path in the format its extension names. An
// existing file is left alone and reported as written == false with a nil
// error.
func WriteTemplate(path string, fm *FieldMap) (written bool, err error) {
	format, err := FormatOf(path)
	if err != nil {
		return false, err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, fm, format); err != nil {
		return false, fmt.Errorf("failed to encode field map: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return true, nil
}
