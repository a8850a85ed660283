package convert

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/steveyegge/airbridge/internal/schema"
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datetimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{3})?Z$`)
	newlines        = strings.NewReplacer("\r\n", " ", "\n", " ")
)

func toText(value any, _ schema.Field) (any, error) {
	value = PreferSingle(value)
	if value == nil {
		return "", nil
	}
	if list, ok := asList(value); ok {
		return newlines.Replace(join(list, ", ")), nil
	}
	return newlines.Replace(stringify(value)), nil
}

func toLongText(value any, _ schema.Field) (any, error) {
	value = PreferSingle(value)
	if value == nil {
		return "", nil
	}
	if list, ok := asList(value); ok {
		return join(list, "\n"), nil
	}
	return stringify(value), nil
}

func toSingleString(value any, _ schema.Field) (any, error) {
	value, err := RequireSingle(value)
	if err != nil || value == nil {
		return nil, err
	}
	return stringify(value), nil
}

func toNumber(value any, field schema.Field) (any, error) {
	value, err := RequireNumeric(value)
	if err != nil || value == nil {
		return nil, err
	}
	d, err := toDecimal(value)
	if err != nil {
		return nil, err
	}

	places := field.NumberDecimalPlaces
	if places < 0 {
		places = 0
	}
	d = d.Truncate(int32(places))
	if !field.NumberNegative && d.IsNegative() {
		d = decimal.Zero
	}
	return json.Number(d.String()), nil
}

func toRating(value any, field schema.Field) (any, error) {
	value, err := RequireNumeric(value)
	if err != nil || value == nil {
		return nil, err
	}
	d, err := toDecimal(value)
	if err != nil {
		return nil, err
	}

	rating := d.IntPart()
	if rating < 1 {
		rating = 1
	}
	if field.MaxValue > 0 && rating > int64(field.MaxValue) {
		rating = int64(field.MaxValue)
	}
	return rating, nil
}

func toBoolean(value any, _ schema.Field) (any, error) {
	value, err := RequireSingle(value)
	if err != nil {
		return nil, err
	}
	return truthy(value), nil
}

func toDate(value any, field schema.Field) (any, error) {
	value, err := RequireSingle(value)
	if err != nil {
		return nil, err
	}
	if value == nil || value == "" {
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDateFormat, value)
	}
	pattern, layout := datePattern, "YYYY-MM-DD"
	if field.DateIncludeTime {
		pattern, layout = datetimePattern, "YYYY-MM-DDTHH:MM:SS(.mmm)Z"
	}
	if !pattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q does not match %s", ErrInvalidDateFormat, s, layout)
	}
	return s, nil
}

func toSingleSelect(value any, field schema.Field) (any, error) {
	value, err := RequireSingle(value)
	if err != nil {
		return nil, err
	}
	if value == nil || value == "" {
		return nil, nil
	}
	return findOption(value, field.SelectOptions)
}

func toMultipleSelect(value any, field schema.Field) (any, error) {
	if value == nil || value == "" {
		return nil, nil
	}
	list, ok := asList(value)
	if !ok {
		list = []any{value}
	}
	if len(list) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(list))
	for _, v := range list {
		id, err := findOption(v, field.SelectOptions)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func findOption(value any, options []schema.SelectOption) (int, error) {
	label := stringify(value)
	for _, opt := range options {
		if opt.Value == label {
			return opt.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSelectOption, label)
}

func join(list []any, sep string) string {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = stringify(v)
	}
	return strings.Join(parts, sep)
}
