package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablediff/metrics"
	"github.com/TFMV/tablediff/pkg/core"
)

func TestNewReporterFormats(t *testing.T) {
	var buf bytes.Buffer

	r, err := NewReporter("text", &buf)
	require.NoError(t, err)
	assert.IsType(t, &TextReporter{}, r)

	r, err = NewReporter("json", &buf)
	require.NoError(t, err)
	assert.IsType(t, &JSONReporter{}, r)

	_, err = NewReporter("xml", &buf)
	assert.Error(t, err)
}

func TestTextReporterLines(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{w: &buf}

	require.NoError(t, r.Report(core.Diff{Kind: core.MissingInB, Key: "7"}))
	require.NoError(t, r.Report(core.Diff{Kind: core.MissingInA, Key: "8"}))
	require.NoError(t, r.Report(core.Diff{
		Kind: core.ValueMismatch, Key: "9", Column: "price", ValueA: "1.0", ValueB: "2.0",
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "row 7: only in file A", lines[0])
	assert.Equal(t, "row 8: only in file B", lines[1])
	assert.Equal(t, `row 9: column price differs: "1.0" != "2.0"`, lines[2])
}

func TestTextReporterEquivalentSummary(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{w: &buf}

	summary := metrics.NewCompareSummary("a.csv", "b.csv")
	summary.RowsA = 10
	summary.RowsB = 10
	summary.Chunks = 2
	summary.Finish()

	require.NoError(t, r.Finish(summary))
	assert.Contains(t, buf.String(), "files are equivalent")
	assert.Contains(t, buf.String(), "10 rows")
}

func TestTextReporterDiffSummary(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{w: &buf}

	summary := metrics.NewCompareSummary("a.csv", "b.csv")
	summary.Record(core.Diff{Kind: core.MissingInB, Key: "1"})
	summary.Record(core.Diff{Kind: core.ValueMismatch, Key: "2", Column: "x"})
	summary.Record(core.Diff{Kind: core.ValueMismatch, Key: "3", Column: "x"})
	summary.Finish()

	require.NoError(t, r.Finish(summary))
	out := buf.String()
	assert.Contains(t, out, "only in A: 1")
	assert.Contains(t, out, "value mismatches: 2")
	assert.Contains(t, out, "x: 2")
	assert.NotContains(t, out, "stopped early")
}

func TestTextReporterTruncatedSummary(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{w: &buf}

	summary := metrics.NewCompareSummary("a.csv", "b.csv")
	summary.Record(core.Diff{Kind: core.MissingInA, Key: "1"})
	summary.Truncated = true
	summary.Finish()

	require.NoError(t, r.Finish(summary))
	assert.Contains(t, buf.String(), "stopped early")
}

func TestJSONReporterEnvelopes(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporter("json", &buf)
	require.NoError(t, err)

	require.NoError(t, r.Report(core.Diff{
		Kind: core.ValueMismatch, Key: "5", Column: "qty", ValueA: "1", ValueB: "2",
	}))

	summary := metrics.NewCompareSummary("a.csv", "b.csv")
	summary.Record(core.Diff{Kind: core.ValueMismatch, Key: "5", Column: "qty"})
	summary.Finish()
	require.NoError(t, r.Finish(summary))

	dec := json.NewDecoder(&buf)

	var first map[string]any
	require.NoError(t, dec.Decode(&first))
	assert.Equal(t, "diff", first["type"])
	diff, ok := first["diff"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value_mismatch", diff["kind"])
	assert.Equal(t, "5", diff["key"])
	assert.Equal(t, "qty", diff["column"])

	var second map[string]any
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "summary", second["type"])
	sum, ok := second["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), sum["diff_total"])
	assert.Equal(t, false, sum["equivalent"])
}
