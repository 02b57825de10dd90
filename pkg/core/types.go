// Package core provides the core types and interfaces for the tablediff
// comparison engine.
package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// TableReader is a forward-only cursor over the rows of one tabular input.
// The header is parsed when the reader is created and stays fixed for the
// reader's lifetime. Next returns io.EOF once the input is exhausted; a
// reader cannot be rewound, restarting requires opening a new one from the
// owning TableSource.
type TableReader interface {
	// Header returns the ordered column names parsed from the first row.
	Header() []string

	// Next returns the cells of the next row.
	// Returns io.EOF when there are no more rows.
	Next(ctx context.Context) ([]string, error)

	// Close closes the reader and releases resources.
	Close() error
}

// TableSource opens readers over one tabular input. The comparison engine
// re-reads each input once per column chunk, so a source must support being
// opened multiple times.
type TableSource interface {
	// Open creates a fresh reader positioned at the first data row.
	Open(ctx context.Context) (TableReader, error)

	// Name identifies the source for reports and error messages,
	// typically the file path.
	Name() string
}

// SourceConfig provides configuration for creating a table source.
type SourceConfig struct {
	// Type is the type of the source ("csv", "arrow").
	Type string

	// Path is the path to the file.
	Path string

	// BatchSize is the number of rows decoded per batch.
	BatchSize int64
}

// DiffKind classifies a single discrepancy between the two inputs.
type DiffKind int

const (
	// ValueMismatch is a matched row whose cell differs in one column.
	ValueMismatch DiffKind = iota

	// MissingInB is a row present in file A with no counterpart in file B.
	MissingInB

	// MissingInA is a row present in file B with no counterpart in file A.
	MissingInA
)

// String returns the report name of the diff kind.
func (k DiffKind) String() string {
	switch k {
	case ValueMismatch:
		return "value_mismatch"
	case MissingInB:
		return "missing_in_b"
	case MissingInA:
		return "missing_in_a"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the kind by its report name.
func (k DiffKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a kind from its report name.
func (k *DiffKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "value_mismatch":
		*k = ValueMismatch
	case "missing_in_b":
		*k = MissingInB
	case "missing_in_a":
		*k = MissingInA
	default:
		return fmt.Errorf("unknown diff kind: %q", name)
	}
	return nil
}

// Diff is one discrepancy between the two inputs. Key is the value of the
// identifier column for the affected row. Column, ValueA and ValueB are set
// for ValueMismatch only.
type Diff struct {
	Kind   DiffKind `json:"kind"`
	Key    string   `json:"key"`
	Column string   `json:"column,omitempty"`
	ValueA string   `json:"value_a,omitempty"`
	ValueB string   `json:"value_b,omitempty"`
}

// DiffReader is a pull-based stream of discrepancies. Next returns io.EOF
// once both inputs are fully compared. The caller may stop early; Close
// releases all cursors and scratch files regardless of how much of the
// stream was consumed.
type DiffReader interface {
	// Next returns the next discrepancy.
	// Returns io.EOF when the comparison is complete.
	Next(ctx context.Context) (Diff, error)

	// Close aborts the comparison and releases resources.
	Close() error
}

// CompareOptions provides options for a comparison run.
type CompareOptions struct {
	// StrictColumnOrder requires both headers to list the same columns in
	// the same order. When false (the default), non-identifier columns are
	// matched by name and reordering is tolerated.
	StrictColumnOrder bool

	// ColumnGroupWidth bounds how many non-identifier columns are
	// materialized per comparison pass. 0 means all columns in one pass.
	ColumnGroupWidth int

	// SortBudgetRows is the number of rows each sort holds in memory
	// before spilling a run to disk. If 0, a default is applied.
	SortBudgetRows int

	// ScratchDir is the directory for spill files. Empty means the
	// system temp directory.
	ScratchDir string

	// Progress, when non-nil, is invoked at the start of each column
	// chunk pass with the zero-based chunk index and the total count.
	Progress func(chunk, total int)
}
