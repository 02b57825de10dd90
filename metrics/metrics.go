// Package metrics defines the summary emitted by a comparison run.
package metrics

import (
	"encoding/json"
	"io"
	"time"

	"github.com/TFMV/tablediff/pkg/core"
)

// CompareSummary aggregates the statistics of one comparison run.
type CompareSummary struct {
	SourceA string `json:"source_a"`
	SourceB string `json:"source_b"`

	RowsA int64 `json:"rows_a"`
	RowsB int64 `json:"rows_b"`

	MissingInA      int64 `json:"missing_in_a"`
	MissingInB      int64 `json:"missing_in_b"`
	ValueMismatches int64 `json:"value_mismatches"`
	DiffTotal       int64 `json:"diff_total"`

	// ColumnMismatches maps column names to their mismatch counts.
	ColumnMismatches map[string]int64 `json:"column_mismatches,omitempty"`

	Chunks      int `json:"chunks"`
	RunsSpilled int `json:"runs_spilled"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Equivalent is true when the full comparison produced no diffs.
	Equivalent bool `json:"equivalent"`

	// Truncated is true when the consumer stopped pulling diffs before
	// the comparison was complete; counts then cover only what was seen.
	Truncated bool `json:"truncated,omitempty"`
}

// NewCompareSummary creates a summary for a run starting now.
func NewCompareSummary(sourceA, sourceB string) *CompareSummary {
	return &CompareSummary{
		SourceA:          sourceA,
		SourceB:          sourceB,
		ColumnMismatches: make(map[string]int64),
		StartTime:        time.Now().UTC(),
	}
}

// Record counts one emitted diff.
func (s *CompareSummary) Record(d core.Diff) {
	s.DiffTotal++
	switch d.Kind {
	case core.MissingInA:
		s.MissingInA++
	case core.MissingInB:
		s.MissingInB++
	case core.ValueMismatch:
		s.ValueMismatches++
		s.ColumnMismatches[d.Column]++
	}
}

// Finish stamps the end of the run and settles the equivalence verdict.
func (s *CompareSummary) Finish() {
	s.EndTime = time.Now().UTC()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Equivalent = s.DiffTotal == 0 && !s.Truncated
}

// WriteJSON renders the summary as indented JSON.
func (s *CompareSummary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
