package convert

import "errors"

// Conversion errors. Each is wrapped with the offending value, so check
// them with errors.Is.
var (
	// ErrMultipleValues is returned when a list with more than one element
	// reaches a rule that needs a single value.
	ErrMultipleValues = errors.New("single value required")

	// ErrInvalidNumericFormat is returned when no number can be extracted
	// from a value.
	ErrInvalidNumericFormat = errors.New("invalid numeric format")

	// ErrInvalidDateFormat is returned when a date does not match
	// YYYY-MM-DD, or the ISO datetime form when the field includes time.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidSelectOption is returned when a value matches no option
	// label of a select field.
	ErrInvalidSelectOption = errors.New("invalid select option")

	// ErrUnsupportedFieldType is returned when no rule is registered for
	// the destination field type.
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrUnknownOverride is returned when a named override does not exist.
	ErrUnknownOverride = errors.New("unknown override")
)

// IsConversionError returns true if err came from a conversion rule.
func IsConversionError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMultipleValues) ||
		errors.Is(err, ErrInvalidNumericFormat) ||
		errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrInvalidSelectOption) ||
		errors.Is(err, ErrUnsupportedFieldType)
}
