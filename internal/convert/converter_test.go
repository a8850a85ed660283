package convert

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/steveyegge/airbridge/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(t schema.FieldType) schema.Field {
	return schema.Field{ID: 1, Name: "f", Type: t}
}

func colours() schema.Field {
	f := field(schema.TypeSingleSelect)
	f.SelectOptions = []schema.SelectOption{{ID: 1, Value: "Red"}, {ID: 2, Value: "Blue"}}
	return f
}

func TestConvert_Text(t *testing.T) {
	conv := New()

	tests := []struct {
		name  string
		ft    schema.FieldType
		input any
		want  any
	}{
		{"text nil", schema.TypeText, nil, ""},
		{"text list joined", schema.TypeText, []any{"a", "b"}, "a, b"},
		{"text newlines collapsed", schema.TypeText, "line1\nline2", "line1 line2"},
		{"text number", schema.TypeText, json.Number("12"), "12"},
		{"long text nil", schema.TypeLongText, []any{}, ""},
		{"long text list", schema.TypeLongText, []any{"a", "b"}, "a\nb"},
		{"long text keeps newlines", schema.TypeLongText, "x\ny", "x\ny"},
		{"url single", schema.TypeURL, []any{"https://x.dev"}, "https://x.dev"},
		{"email nil", schema.TypeEmail, nil, nil},
		{"phone number", schema.TypePhoneNumber, json.Number("5551234"), "5551234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.Convert(field(tt.ft), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := conv.Convert(field(schema.TypeURL), []any{"a", "b"})
	assert.ErrorIs(t, err, ErrMultipleValues)
}

func TestConvert_Number(t *testing.T) {
	conv := New()

	tests := []struct {
		name     string
		places   int
		negative bool
		input    any
		want     any
	}{
		{"negative clamped after truncation", 2, false, -5.678, json.Number("0")},
		{"negative allowed truncates toward zero", 2, true, -5.678, json.Number("-5.67")},
		{"two places", 2, false, "$1,234.567", json.Number("1234.56")},
		{"integer truncation", 0, false, "19.99", json.Number("19")},
		{"json number", 1, true, json.Number("3.14159"), json.Number("3.1")},
		{"empty", 2, false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := field(schema.TypeNumber)
			f.NumberDecimalPlaces = tt.places
			f.NumberNegative = tt.negative

			got, err := conv.Convert(f, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := conv.Convert(field(schema.TypeNumber), "n/a")
	assert.ErrorIs(t, err, ErrInvalidNumericFormat)
}

func TestConvert_Rating(t *testing.T) {
	conv := New()
	f := field(schema.TypeRating)
	f.MaxValue = 5

	got, err := conv.Convert(f, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = conv.Convert(f, "0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = conv.Convert(f, json.Number("3"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	got, err = conv.Convert(f, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConvert_Boolean(t *testing.T) {
	conv := New()

	got, err := conv.Convert(field(schema.TypeBoolean), true)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = conv.Convert(field(schema.TypeBoolean), nil)
	require.NoError(t, err)
	assert.Equal(t, false, got)

	got, err = conv.Convert(field(schema.TypeBoolean), []any{"yes"})
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestConvert_Date(t *testing.T) {
	conv := New()
	dateOnly := field(schema.TypeDate)
	withTime := field(schema.TypeDate)
	withTime.DateIncludeTime = true

	got, err := conv.Convert(dateOnly, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", got)

	_, err = conv.Convert(dateOnly, "2024-01-15T10:00:00Z")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	got, err = conv.Convert(withTime, "2024-01-15T10:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T10:00:00.000Z", got)

	got, err = conv.Convert(withTime, "2024-01-15T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T10:00:00Z", got)

	_, err = conv.Convert(withTime, "2024-01-15")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = conv.Convert(dateOnly, "15/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	got, err = conv.Convert(dateOnly, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConvert_SingleSelect(t *testing.T) {
	conv := New()

	got, err := conv.Convert(colours(), "Blue")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = conv.Convert(colours(), "Green")
	assert.ErrorIs(t, err, ErrInvalidSelectOption)

	_, err = conv.Convert(colours(), "blue")
	assert.ErrorIs(t, err, ErrInvalidSelectOption, "labels match exactly")

	got, err = conv.Convert(colours(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConvert_MultipleSelect(t *testing.T) {
	conv := New()
	f := colours()
	f.Type = schema.TypeMultipleSelect

	got, err := conv.Convert(f, []any{"Red", "Blue"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	got, err = conv.Convert(f, "Red")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, err = conv.Convert(f, []any{})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = conv.Convert(f, []any{"Red", "Green"})
	assert.ErrorIs(t, err, ErrInvalidSelectOption)
}

func TestConvert_UnsupportedType(t *testing.T) {
	conv := New()

	_, err := conv.Convert(field("formula"), "x")
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
	assert.True(t, IsConversionError(err))

	_, err = conv.Convert(field(schema.TypeLinkRow), []any{"rec1"})
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
}

func TestConverter_RegisterRejectsDeferredTypes(t *testing.T) {
	conv := New()
	assert.Panics(t, func() {
		conv.Register(schema.TypeFile, StrategyFunc(toText))
	})
}

func TestConverter_Apply(t *testing.T) {
	conv := New()
	f := field(schema.TypeText)

	shout := func(v any, got schema.Field, def Func) (any, error) {
		assert.Equal(t, f.ID, got.ID)
		out, err := def(v)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(out.(string)) + "!", nil
	}

	out, err := conv.Apply(f, []any{"a", "b"}, shout)
	require.NoError(t, err)
	assert.Equal(t, "A, B!", out)

	out, err = conv.Apply(f, "plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	failing := func(any, schema.Field, Func) (any, error) { return nil, errors.New("nope") }
	_, err = conv.Apply(f, "x", failing)
	assert.EqualError(t, err, "nope")
}

func TestNamedOverride(t *testing.T) {
	conv := New()
	f := field(schema.TypeText)

	trim, err := NamedOverride("trim")
	require.NoError(t, err)
	out, err := conv.Apply(f, []any{"  a ", " b"}, trim)
	require.NoError(t, err)
	assert.Equal(t, "a, b", out)

	firstOnly, err := NamedOverride("first")
	require.NoError(t, err)
	out, err = conv.Apply(field(schema.TypeURL), []any{"https://a", "https://b"}, firstOnly)
	require.NoError(t, err)
	assert.Equal(t, "https://a", out)

	_, err = NamedOverride("reverse")
	assert.ErrorIs(t, err, ErrUnknownOverride)
	assert.Equal(t, []string{"first", "lowercase", "trim", "uppercase"}, OverrideNames())
}
