package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/airbridge/internal/schema"
)

var namedOverrides = map[string]Override{
	"trim":      mapStrings(strings.TrimSpace),
	"lowercase": mapStrings(strings.ToLower),
	"uppercase": mapStrings(strings.ToUpper),
	"first":     first,
}

// NamedOverride returns a built-in override by name, for field maps that
// cannot carry Go code.
func NamedOverride(name string) (Override, error) {
	o, ok := namedOverrides[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownOverride, name, strings.Join(OverrideNames(), ", "))
	}
	return o, nil
}

// OverrideNames lists the built-in override names.
func OverrideNames() []string {
	names := make([]string, 0, len(namedOverrides))
	for name := range namedOverrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mapStrings applies fn to string values, element-wise for lists, before
// the default rule runs.
func mapStrings(fn func(string) string) Override {
	return func(value any, _ schema.Field, def Func) (any, error) {
		if s, ok := value.(string); ok {
			return def(fn(s))
		}
		list, ok := asList(value)
		if !ok {
			return def(value)
		}
		out := make([]any, len(list))
		for i, item := range list {
			if s, ok := item.(string); ok {
				item = fn(s)
			}
			out[i] = item
		}
		return def(out)
	}
}

// first keeps only the first element of a list value.
func first(value any, _ schema.Field, def Func) (any, error) {
	if list, ok := asList(value); ok && len(list) > 1 {
		value = list[:1]
	}
	return def(value)
}
