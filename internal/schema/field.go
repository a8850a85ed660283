package schema

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// FieldType is the Baserow field type name.
type FieldType string

const (
	TypeText           FieldType = "text"
	TypeLongText       FieldType = "long_text"
	TypeURL            FieldType = "url"
	TypeEmail          FieldType = "email"
	TypePhoneNumber    FieldType = "phone_number"
	TypeNumber         FieldType = "number"
	TypeRating         FieldType = "rating"
	TypeBoolean        FieldType = "boolean"
	TypeDate           FieldType = "date"
	TypeSingleSelect   FieldType = "single_select"
	TypeMultipleSelect FieldType = "multiple_select"

	// TypeLinkRow and TypeFile are filled in after rows exist and never
	// reach the value converters.
	TypeLinkRow FieldType = "link_row"
	TypeFile    FieldType = "file"
)

// IsDeferred reports whether values of this type are written after the
// create pass.
func (t FieldType) IsDeferred() bool {
	return t == TypeLinkRow || t == TypeFile
}

// SelectOption is one choice of a single or multiple select field.
type SelectOption struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Field is a Baserow field descriptor.
type Field struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Primary bool      `json:"primary"`

	NumberDecimalPlaces int            `json:"number_decimal_places"`
	NumberNegative      bool           `json:"number_negative"`
	MaxValue            int            `json:"max_value"`
	DateIncludeTime     bool           `json:"date_include_time"`
	SelectOptions       []SelectOption `json:"select_options,omitempty"`

	// Raw is the complete descriptor as returned by the API.
	Raw map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed attributes and keeps the raw descriptor.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Field(p)
	f.Raw = raw
	return nil
}

// Key returns the row payload key for this field: field_<id>.
func (f Field) Key() string {
	return FieldKey(f.ID)
}

// FieldKey returns the row payload key for a field id.
func FieldKey(id int) string {
	return "field_" + strconv.Itoa(id)
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if f.Name == "" {
		return fmt.Sprintf("field_%d (%s)", f.ID, f.Type)
	}
	return fmt.Sprintf("field_%d %q (%s)", f.ID, f.Name, f.Type)
}

// Fields indexes a table's descriptors by field id.
type Fields map[int]Field

// IndexFields builds a Fields index from a descriptor list.
func IndexFields(list []Field) Fields {
	fields := make(Fields, len(list))
	for _, f := range list {
		fields[f.ID] = f
	}
	return fields
}
