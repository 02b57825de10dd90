package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compare.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
file_a: old.csv
file_b: new.csv
strict_column_order: true
column_group_width: 8
sort_budget_rows: 50000
scratch_dir: /tmp/scratch
max_diffs: 200
format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "old.csv", cfg.FileA)
	assert.Equal(t, "new.csv", cfg.FileB)
	assert.True(t, cfg.StrictColumnOrder)
	assert.Equal(t, 8, cfg.ColumnGroupWidth)
	assert.Equal(t, 50000, cfg.SortBudgetRows)
	assert.Equal(t, "/tmp/scratch", cfg.ScratchDir)
	assert.Equal(t, 200, cfg.MaxDiffs)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
file_a: old.csv
file_b: new.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.StrictColumnOrder)
	assert.Zero(t, cfg.ColumnGroupWidth)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "file_a: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *CompareConfig {
		return &CompareConfig{FileA: "a.csv", FileB: "b.csv", Format: "text"}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.FileA = ""
	assert.EqualError(t, cfg.Validate(), "file_a is required")

	cfg = base()
	cfg.FileB = ""
	assert.EqualError(t, cfg.Validate(), "file_b is required")

	cfg = base()
	cfg.ColumnGroupWidth = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.SortBudgetRows = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxDiffs = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Format = "xml"
	assert.EqualError(t, cfg.Validate(), `format must be text or json, got "xml"`)
}
