package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/airbridge/internal/airtable"
	"github.com/steveyegge/airbridge/internal/baserow"
	"github.com/steveyegge/airbridge/internal/config"
	"github.com/steveyegge/airbridge/internal/fieldmap"
)

func newBaserow(s *config.Settings) *baserow.Client {
	return baserow.New(s.BaserowURL, s.BaserowToken, baserow.WithTimeout(s.HTTPTimeout))
}

func newAirtable(s *config.Settings) *airtable.Client {
	return airtable.New(s.AirtableURL, s.AirtableToken, airtable.WithTimeout(s.HTTPTimeout))
}

// loadFieldMap loads the configured field map. A non-empty only restricts
// it to those base ids.
func loadFieldMap(s *config.Settings, only []string) (*fieldmap.FieldMap, error) {
	fm, err := fieldmap.Load(s.FieldMap)
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		return fm, nil
	}

	filtered := &fieldmap.FieldMap{Bases: make(map[string]fieldmap.Base, len(only))}
	var missing []string
	for _, id := range only {
		base, ok := fm.Bases[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		filtered.Bases[id] = base
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("bases not in %s: %s", s.FieldMap, strings.Join(missing, ", "))
	}
	return filtered, nil
}
