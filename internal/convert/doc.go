// Package convert turns Airtable cell values into values the Baserow row API
// accepts for a given destination field.
//
// Conversion is dispatched on the destination field type through a
// registry of strategies. Each strategy is pure: it sees the raw value and
// the field descriptor and nothing else.
//
//	conv := convert.New()
//	v, err := conv.Convert(field, rawValue)
//
// Callers can replace the rule for a single field with an Override. The
// override receives the raw value, the field descriptor and a Func bound to
// the built-in rule for that field, so it can pre-process the input or
// post-process the output:
//
//	overrides := map[int]convert.Override{
//	    1234: func(v any, f schema.Field, def convert.Func) (any, error) {
//	        out, err := def(v)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return strings.ToUpper(out.(string)), nil
//	    },
//	}
//
// A nil result means "leave the field unset"; the mapper drops it from the
// row payload so the Baserow default applies.
//
// Link and file fields are not converted here. They need destination row
// ids and uploaded file names, which only exist after the create pass.
package convert
