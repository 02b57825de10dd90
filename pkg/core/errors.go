package core

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid engine configuration. It is surfaced
// before any row of either input is read.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// SchemaError reports that the two headers could not be reconciled.
// Exactly one group of fields is populated depending on the failure:
// OnlyInA/OnlyInB for a name-set mismatch, DuplicatesA/DuplicatesB for
// repeated header names, and Position/NameA/NameB for a strict-order
// positional mismatch (Position is -1 when unused).
type SchemaError struct {
	OnlyInA     []string
	OnlyInB     []string
	DuplicatesA []string
	DuplicatesB []string
	LengthA     int
	LengthB     int
	Position    int
	NameA       string
	NameB       string
}

func (e *SchemaError) Error() string {
	switch {
	case len(e.DuplicatesA) > 0 || len(e.DuplicatesB) > 0:
		return fmt.Sprintf("schema mismatch: duplicate column names (file A: [%s], file B: [%s])",
			strings.Join(e.DuplicatesA, ", "), strings.Join(e.DuplicatesB, ", "))
	case len(e.OnlyInA) > 0 || len(e.OnlyInB) > 0:
		return fmt.Sprintf("schema mismatch: columns only in file A: [%s], only in file B: [%s]",
			strings.Join(e.OnlyInA, ", "), strings.Join(e.OnlyInB, ", "))
	case e.Position >= 0:
		return fmt.Sprintf("schema mismatch: column %d is %q in file A but %q in file B",
			e.Position, e.NameA, e.NameB)
	default:
		return fmt.Sprintf("schema mismatch: file A has %d columns, file B has %d",
			e.LengthA, e.LengthB)
	}
}

// MalformedInputError reports an input file the engine cannot interpret:
// a missing header, a row whose field count differs from the header's, or
// an undecodable file. Line is 1-based when known, 0 otherwise.
type MalformedInputError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input %s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
