package importer

import "fmt"

// IDMap translates Airtable record ids to Baserow row ids within one base.
type IDMap map[string]int

// Add pairs index-aligned source ids and row ids.
func (m IDMap) Add(sourceIDs []string, rowIDs []int) error {
	if len(sourceIDs) != len(rowIDs) {
		return fmt.Errorf("can't pair %d records with %d rows", len(sourceIDs), len(rowIDs))
	}
	for i, id := range sourceIDs {
		m[id] = rowIDs[i]
	}
	return nil
}

// Resolve translates a list of source ids, failing on the first one that
// has no row.
func (m IDMap) Resolve(sourceIDs []string) ([]int, error) {
	out := make([]int, len(sourceIDs))
	for i, id := range sourceIDs {
		row, ok := m[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnmappedRecordReference, id)
		}
		out[i] = row
	}
	return out, nil
}
