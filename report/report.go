// Package report renders the diff stream and the run summary for human or
// machine consumers. It is a sink: the engine never depends on it.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/TFMV/tablediff/metrics"
	"github.com/TFMV/tablediff/pkg/core"
)

// Reporter consumes diffs one at a time and closes with the run summary.
type Reporter interface {
	Report(d core.Diff) error
	Finish(summary *metrics.CompareSummary) error
}

// NewReporter returns a reporter for the given format ("text" or "json").
func NewReporter(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "text":
		return &TextReporter{w: w}, nil
	case "json":
		return &JSONReporter{w: w, enc: json.NewEncoder(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// TextReporter writes one human-readable line per diff.
type TextReporter struct {
	w io.Writer
}

// Report renders a single diff line.
func (r *TextReporter) Report(d core.Diff) error {
	var err error
	switch d.Kind {
	case core.MissingInB:
		_, err = fmt.Fprintf(r.w, "row %s: only in file A\n", d.Key)
	case core.MissingInA:
		_, err = fmt.Fprintf(r.w, "row %s: only in file B\n", d.Key)
	case core.ValueMismatch:
		_, err = fmt.Fprintf(r.w, "row %s: column %s differs: %q != %q\n", d.Key, d.Column, d.ValueA, d.ValueB)
	}
	return err
}

// Finish renders the run summary.
func (r *TextReporter) Finish(summary *metrics.CompareSummary) error {
	if summary.Equivalent {
		_, err := fmt.Fprintf(r.w, "files are equivalent (%d rows, %d chunks, %s)\n",
			summary.RowsA, summary.Chunks, summary.Duration)
		return err
	}

	_, err := fmt.Fprintf(r.w,
		"\nSummary:\n  rows in A: %d\n  rows in B: %d\n  only in A: %d\n  only in B: %d\n  value mismatches: %d\n",
		summary.RowsA, summary.RowsB, summary.MissingInB, summary.MissingInA, summary.ValueMismatches)
	if err != nil {
		return err
	}

	if len(summary.ColumnMismatches) > 0 {
		if _, err := fmt.Fprintln(r.w, "  mismatches by column:"); err != nil {
			return err
		}
		for col, count := range summary.ColumnMismatches {
			if _, err := fmt.Fprintf(r.w, "    %s: %d\n", col, count); err != nil {
				return err
			}
		}
	}

	if summary.Truncated {
		if _, err := fmt.Fprintln(r.w, "  (stopped early, counts are partial)"); err != nil {
			return err
		}
	}
	return nil
}

// JSONReporter writes one JSON object per diff, then the summary.
type JSONReporter struct {
	w   io.Writer
	enc *json.Encoder
}

// Report encodes a single diff.
func (r *JSONReporter) Report(d core.Diff) error {
	return r.enc.Encode(diffEnvelope{Type: "diff", Diff: &d})
}

// Finish encodes the run summary.
func (r *JSONReporter) Finish(summary *metrics.CompareSummary) error {
	return r.enc.Encode(diffEnvelope{Type: "summary", Summary: summary})
}

type diffEnvelope struct {
	Type    string                   `json:"type"`
	Diff    *core.Diff               `json:"diff,omitempty"`
	Summary *metrics.CompareSummary `json:"summary,omitempty"`
}
