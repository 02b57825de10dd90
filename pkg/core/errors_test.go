package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "sort budget", Reason: "must hold at least one row"}
	assert.Equal(t, "invalid configuration: sort budget: must hold at least one row", err.Error())
}

func TestSchemaErrorMessages(t *testing.T) {
	err := &SchemaError{OnlyInA: []string{"x"}, OnlyInB: []string{"y", "z"}, Position: -1}
	assert.Equal(t, "schema mismatch: columns only in file A: [x], only in file B: [y, z]", err.Error())

	err = &SchemaError{DuplicatesA: []string{"x"}, Position: -1}
	assert.Contains(t, err.Error(), "duplicate column names")

	err = &SchemaError{Position: 2, NameA: "qty", NameB: "count"}
	assert.Equal(t, `schema mismatch: column 2 is "qty" in file A but "count" in file B`, err.Error())

	err = &SchemaError{LengthA: 3, LengthB: 4, Position: -1}
	assert.Equal(t, "schema mismatch: file A has 3 columns, file B has 4", err.Error())
}

func TestMalformedInputError(t *testing.T) {
	cause := fmt.Errorf("bad byte")
	err := &MalformedInputError{Path: "in.csv", Line: 12, Reason: "row has 3 fields, header has 4", Err: cause}
	assert.Equal(t, "malformed input in.csv: line 12: row has 3 fields, header has 4", err.Error())
	assert.True(t, errors.Is(err, cause))

	err = &MalformedInputError{Path: "in.csv", Reason: "missing header"}
	assert.Equal(t, "malformed input in.csv: missing header", err.Error())
}

func TestDiffKindString(t *testing.T) {
	assert.Equal(t, "value_mismatch", ValueMismatch.String())
	assert.Equal(t, "missing_in_b", MissingInB.String())
	assert.Equal(t, "missing_in_a", MissingInA.String())
	assert.Equal(t, "unknown", DiffKind(99).String())
}

func TestDiffKindJSONRoundTrip(t *testing.T) {
	for _, kind := range []DiffKind{ValueMismatch, MissingInB, MissingInA} {
		data, err := kind.MarshalJSON()
		assert.NoError(t, err)

		var back DiffKind
		assert.NoError(t, back.UnmarshalJSON(data))
		assert.Equal(t, kind, back)
	}

	var k DiffKind
	assert.Error(t, k.UnmarshalJSON([]byte(`"sideways"`)))
}
