package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDMap(t *testing.T) {
	m := make(IDMap)
	require.NoError(t, m.Add([]string{"recA", "recB"}, []int{10, 11}))
	require.Error(t, m.Add([]string{"recC"}, []int{12, 13}))

	rows, err := m.Resolve([]string{"recB", "recA", "recB"})
	require.NoError(t, err)
	assert.Equal(t, []int{11, 10, 11}, rows)

	_, err = m.Resolve([]string{"recA", "recZ"})
	assert.True(t, errors.Is(err, ErrUnmappedRecordReference))
}

func TestBatcher(t *testing.T) {
	var sizes []int
	b := newBatcher(3, func(items []int) error {
		sizes = append(sizes, len(items))
		return nil
	})
	for i := range 7 {
		require.NoError(t, b.Add(i))
	}
	require.NoError(t, b.Flush())
	require.NoError(t, b.Flush())
	assert.Equal(t, []int{3, 3, 1}, sizes)
}

func TestBatcher_Error(t *testing.T) {
	boom := errors.New("boom")
	b := newBatcher(2, func([]string) error { return boom })
	require.NoError(t, b.Add("a"))
	assert.ErrorIs(t, b.Add("b"), boom)
}
