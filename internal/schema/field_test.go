package schema

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"id": 42,
		"name": "Colour",
		"type": "single_select",
		"primary": false,
		"select_options": [{"id": 1, "value": "Red", "color": "red"}, {"id": 2, "value": "Blue"}],
		"description": "paint colour"
	}`)

	var f Field
	require.NoError(t, json.Unmarshal(data, &f))

	assert.Equal(t, 42, f.ID)
	assert.Equal(t, TypeSingleSelect, f.Type)
	require.Len(t, f.SelectOptions, 2)
	assert.Equal(t, SelectOption{ID: 2, Value: "Blue"}, f.SelectOptions[1])
	assert.Equal(t, "paint colour", f.Raw["description"])
	assert.Equal(t, "field_42", f.Key())
}

func TestIndexFields(t *testing.T) {
	var list []Field
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": 1, "name": "Name", "type": "text", "primary": true},
		{"id": 7, "name": "Price", "type": "number", "number_decimal_places": 2}
	]`), &list))

	fields := IndexFields(list)
	require.Len(t, fields, 2)
	assert.True(t, fields[1].Primary)
	assert.Equal(t, 2, fields[7].NumberDecimalPlaces)
	assert.False(t, fields[7].NumberNegative)
}

func TestFieldType_IsDeferred(t *testing.T) {
	assert.True(t, TypeLinkRow.IsDeferred())
	assert.True(t, TypeFile.IsDeferred())
	assert.False(t, TypeText.IsDeferred())
	assert.False(t, TypeMultipleSelect.IsDeferred())
}
