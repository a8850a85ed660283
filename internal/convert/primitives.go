package convert

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var numericPattern = regexp.MustCompile(`^(\D*)([\d,]+(?:\.\d+)?)(\D*)`)

// PreferSingle unwraps single element lists. An empty list becomes nil and
// longer lists are returned unchanged.
func PreferSingle(value any) any {
	list, ok := asList(value)
	if !ok {
		return value
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return value
}

// RequireSingle is PreferSingle that fails on lists with more than one
// element.
func RequireSingle(value any) (any, error) {
	value = PreferSingle(value)
	if list, ok := asList(value); ok {
		return nil, fmt.Errorf("%w: got %d values", ErrMultipleValues, len(list))
	}
	return value, nil
}

// RequireNumeric returns a single numeric value. Numbers are returned as
// they are. Strings are reduced to their numeric core, so "$1,234.50" and
// "1200 ms" become "1234.50" and "1200". Empty input yields nil.
// A leading minus sign is treated as prefix text, so the string "-5"
// yields "5"; overrides that need signed strings must parse them first.
func RequireNumeric(value any) (any, error) {
	value, err := RequireSingle(value)
	if err != nil {
		return nil, err
	}
	if value == nil || value == "" {
		return nil, nil
	}
	if isNumber(value) {
		return value, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumericFormat, value)
	}
	match := numericPattern.FindStringSubmatch(s)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
	}
	core := strings.ReplaceAll(match[2], ",", "")
	if core == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
	}
	return core, nil
}

// asList reports whether value is a slice, returning its elements.
func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []byte, string, json.RawMessage:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isNumber(value any) bool {
	switch value.(type) {
	case json.Number, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// toDecimal parses the output of RequireNumeric.
func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case json.Number:
		return parseDecimal(v.String())
	case string:
		return parseDecimal(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	}
	n, err := cast.ToInt64E(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumericFormat, value)
	}
	return decimal.NewFromInt(n), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
	}
	return d, nil
}

// stringify renders a scalar the way it reads in Airtable.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	return fmt.Sprint(value)
}

// truthy mirrors how a checkbox reads a loosely typed value: zero values,
// empty strings and empty collections are false, everything else is true.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return err != nil || !d.IsZero()
	case map[string]any:
		return len(v) > 0
	}
	if isNumber(value) {
		return cast.ToFloat64(value) != 0
	}
	if list, ok := asList(value); ok {
		return len(list) > 0
	}
	return true
}
