package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablediff/pkg/core"
)

func TestReconcileByNameIdenticalHeaders(t *testing.T) {
	m, err := Reconcile([]string{"id", "x", "y"}, []string{"id", "x", "y"}, false)
	require.NoError(t, err)

	assert.Equal(t, Correspondence{Name: "id", PosA: 0, PosB: 0}, m.Key)
	assert.Equal(t, []Correspondence{
		{Name: "x", PosA: 1, PosB: 1},
		{Name: "y", PosA: 2, PosB: 2},
	}, m.Columns)
}

func TestReconcileByNameReordered(t *testing.T) {
	m, err := Reconcile([]string{"id", "x", "y"}, []string{"id", "y", "x"}, false)
	require.NoError(t, err)

	// Correspondences follow file A's column order.
	assert.Equal(t, []Correspondence{
		{Name: "x", PosA: 1, PosB: 2},
		{Name: "y", PosA: 2, PosB: 1},
	}, m.Columns)
}

func TestReconcileByNameIdentifierIsPositional(t *testing.T) {
	// The first column is the identifier on both sides even when the
	// names differ.
	m, err := Reconcile([]string{"id", "x"}, []string{"key", "x"}, false)
	require.NoError(t, err)

	assert.Equal(t, Correspondence{Name: "id", PosA: 0, PosB: 0}, m.Key)
	assert.Equal(t, []Correspondence{{Name: "x", PosA: 1, PosB: 1}}, m.Columns)
}

func TestReconcileByNameSetMismatch(t *testing.T) {
	_, err := Reconcile([]string{"id", "x", "y"}, []string{"id", "x", "z"}, false)
	require.Error(t, err)

	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"y"}, schemaErr.OnlyInA)
	assert.Equal(t, []string{"z"}, schemaErr.OnlyInB)
}

func TestReconcileByNameDuplicates(t *testing.T) {
	_, err := Reconcile([]string{"id", "x", "x"}, []string{"id", "x", "y"}, false)
	require.Error(t, err)

	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"x"}, schemaErr.DuplicatesA)
	assert.Empty(t, schemaErr.DuplicatesB)
}

func TestReconcileStrictMatch(t *testing.T) {
	m, err := Reconcile([]string{"id", "x", "y"}, []string{"id", "x", "y"}, true)
	require.NoError(t, err)
	assert.Len(t, m.Columns, 2)
}

func TestReconcileStrictLengthMismatch(t *testing.T) {
	_, err := Reconcile([]string{"id", "x"}, []string{"id", "x", "y"}, true)
	require.Error(t, err)

	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 2, schemaErr.LengthA)
	assert.Equal(t, 3, schemaErr.LengthB)
}

func TestReconcileStrictReorderFails(t *testing.T) {
	// Same name set, different order: strict mode checks names against
	// positions and must fail rather than compare shifted columns.
	_, err := Reconcile([]string{"id", "x", "y"}, []string{"id", "y", "x"}, true)
	require.Error(t, err)

	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 1, schemaErr.Position)
	assert.Equal(t, "x", schemaErr.NameA)
	assert.Equal(t, "y", schemaErr.NameB)
}

func TestReconcileEmptyHeader(t *testing.T) {
	_, err := Reconcile(nil, []string{"id"}, false)
	assert.Error(t, err)
}
