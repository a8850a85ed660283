// Package mapper converts one Airtable record into a Baserow row payload.
//
// Scalar fields go through the convert package. Link and file fields cannot
// be written until their targets exist, so the mapper sets them aside in
// Links and Files for the later passes of the importer.
package mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/steveyegge/airbridge/internal/convert"
	"github.com/steveyegge/airbridge/internal/schema"
)

var (
	// ErrUnknownDestinationField is returned when the field map points at a
	// Baserow field id that the destination table does not have.
	ErrUnknownDestinationField = errors.New("baserow field not found")

	// ErrInvalidLinkSource is returned when a link_row field is fed
	// anything but a list of record ids.
	ErrInvalidLinkSource = errors.New("baserow link fields can only be mapped from airtable link fields")

	// ErrInvalidFileSource is returned when a file field is fed anything
	// but a list of attachment descriptors.
	ErrInvalidFileSource = errors.New("baserow file fields can only be mapped from airtable attachment fields")
)

// IsConfigError returns true if err means the field map does not match the
// destination schema.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownDestinationField)
}

// IsSourceShapeError returns true if err means a source value has the wrong
// shape for a link or file field.
func IsSourceShapeError(err error) bool {
	return errors.Is(err, ErrInvalidLinkSource) || errors.Is(err, ErrInvalidFileSource)
}

// Links holds the linked source record ids of one record, by destination
// field id.
type Links map[int][]string

// Files holds the attachments of one record, by destination field id.
type Files map[int][]schema.Attachment

// Mapper maps records of one table.
type Mapper struct {
	conv      *convert.Converter
	names     map[string]int
	fields    schema.Fields
	overrides map[int]convert.Override
}

// New creates a Mapper for a table. names maps Airtable field names to
// Baserow field ids; fields is the destination schema of the table.
// overrides may be nil.
func New(conv *convert.Converter, names map[string]int, fields schema.Fields, overrides map[int]convert.Override) *Mapper {
	if conv == nil {
		conv = convert.New()
	}
	return &Mapper{
		conv:      conv,
		names:     names,
		fields:    fields,
		overrides: overrides,
	}
}

// Validate checks every mapped field against the destination schema and
// reports all problems at once.
func (m *Mapper) Validate() error {
	var result *multierror.Error
	for _, name := range sortedKeys(m.names) {
		id := m.names[name]
		f, ok := m.fields[id]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s (mapped from %q)", ErrUnknownDestinationField, schema.FieldKey(id), name))
			continue
		}
		if !f.Type.IsDeferred() && !m.conv.Supports(f.Type) {
			result = multierror.Append(result, fmt.Errorf("can't import into %s from %q: %w: %s", f.Key(), name, convert.ErrUnsupportedFieldType, f.Type))
		}
	}
	return result.ErrorOrNil()
}

// Map converts the fields of one record. Link and file values are stored in
// links and files; everything else is returned as a payload keyed by
// field_<id>. Fields the field map does not mention are ignored, and nil
// conversions are left out of the payload.
func (m *Mapper) Map(source map[string]any, links Links, files Files) (map[string]any, error) {
	payload := make(map[string]any, len(source))

	for _, name := range sortedKeys(source) {
		id, ok := m.names[name]
		if !ok {
			continue
		}
		value := source[name]

		f, ok := m.fields[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s (mapped from %q)", ErrUnknownDestinationField, schema.FieldKey(id), name)
		}

		switch f.Type {
		case schema.TypeLinkRow:
			ids, ok := schema.ParseRecordIDs(value)
			if !ok {
				return nil, fmt.Errorf("%w: %q -> %s", ErrInvalidLinkSource, name, f.Key())
			}
			links[id] = ids
			continue
		case schema.TypeFile:
			atts, ok := schema.ParseAttachments(value)
			if !ok {
				return nil, fmt.Errorf("%w: %q -> %s", ErrInvalidFileSource, name, f.Key())
			}
			files[id] = atts
			continue
		}

		converted, err := m.conv.Apply(f, value, m.overrides[id])
		if err != nil {
			return nil, fmt.Errorf("failed to convert %q into %s: %w", name, f.Key(), err)
		}
		if converted != nil {
			payload[f.Key()] = converted
		}
	}

	return payload, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
