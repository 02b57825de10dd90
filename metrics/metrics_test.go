package metrics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablediff/pkg/core"
)

func TestSummaryRecordAndFinish(t *testing.T) {
	s := NewCompareSummary("a.csv", "b.csv")
	s.Record(core.Diff{Kind: core.MissingInB, Key: "1"})
	s.Record(core.Diff{Kind: core.MissingInA, Key: "2"})
	s.Record(core.Diff{Kind: core.ValueMismatch, Key: "3", Column: "x"})
	s.Record(core.Diff{Kind: core.ValueMismatch, Key: "4", Column: "x"})
	s.Finish()

	assert.Equal(t, int64(1), s.MissingInB)
	assert.Equal(t, int64(1), s.MissingInA)
	assert.Equal(t, int64(2), s.ValueMismatches)
	assert.Equal(t, int64(4), s.DiffTotal)
	assert.Equal(t, int64(2), s.ColumnMismatches["x"])
	assert.False(t, s.Equivalent)
	assert.False(t, s.EndTime.IsZero())
}

func TestSummaryEquivalent(t *testing.T) {
	s := NewCompareSummary("a.csv", "b.csv")
	s.Finish()
	assert.True(t, s.Equivalent)

	s = NewCompareSummary("a.csv", "b.csv")
	s.Truncated = true
	s.Finish()
	assert.False(t, s.Equivalent)
}

func TestSummaryWriteJSON(t *testing.T) {
	s := NewCompareSummary("a.csv", "b.csv")
	s.RowsA = 5
	s.RowsB = 5
	s.Finish()

	var buf bytes.Buffer
	require.NoError(t, s.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a.csv", decoded["source_a"])
	assert.Equal(t, float64(5), decoded["rows_a"])
	assert.Equal(t, true, decoded["equivalent"])
	assert.NotContains(t, decoded, "truncated")
}
