package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablediff/pkg/core"
)

func mappingWithColumns(n int) *Mapping {
	m := &Mapping{Key: Correspondence{Name: "id"}}
	for i := 1; i <= n; i++ {
		m.Columns = append(m.Columns, Correspondence{Name: string(rune('a' + i - 1)), PosA: i, PosB: i})
	}
	return m
}

func TestPartitionUnbounded(t *testing.T) {
	chunks, err := Partition(mappingWithColumns(5), 0)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Columns, 5)
}

func TestPartitionBounded(t *testing.T) {
	chunks, err := Partition(mappingWithColumns(5), 2)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Columns, 2)
	assert.Len(t, chunks[1].Columns, 2)
	assert.Len(t, chunks[2].Columns, 1)

	// Chunk i holds entries [i*width, (i+1)*width) in file A order.
	assert.Equal(t, "a", chunks[0].Columns[0].Name)
	assert.Equal(t, "c", chunks[1].Columns[0].Name)
	assert.Equal(t, "e", chunks[2].Columns[0].Name)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestPartitionWidthLargerThanColumns(t *testing.T) {
	chunks, err := Partition(mappingWithColumns(2), 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Columns, 2)
}

func TestPartitionIdentifierOnlyMapping(t *testing.T) {
	// A file with only the identifier column still needs one key-only
	// pass so missing rows are detected.
	chunks, err := Partition(mappingWithColumns(0), 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Columns)
}

func TestPartitionNegativeWidth(t *testing.T) {
	_, err := Partition(mappingWithColumns(3), -1)
	require.Error(t, err)

	var configErr *core.ConfigError
	assert.ErrorAs(t, err, &configErr)
}
