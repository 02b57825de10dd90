// Package config loads and validates comparison settings from a YAML file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// CompareConfig mirrors the compare command's flags so recurring
// comparisons can be pinned in a file.
type CompareConfig struct {
	FileA string `mapstructure:"file_a" yaml:"file_a"`
	FileB string `mapstructure:"file_b" yaml:"file_b"`

	StrictColumnOrder bool   `mapstructure:"strict_column_order" yaml:"strict_column_order"`
	ColumnGroupWidth  int    `mapstructure:"column_group_width" yaml:"column_group_width"`
	SortBudgetRows    int    `mapstructure:"sort_budget_rows" yaml:"sort_budget_rows"`
	ScratchDir        string `mapstructure:"scratch_dir" yaml:"scratch_dir"`

	MaxDiffs int    `mapstructure:"max_diffs" yaml:"max_diffs"`
	Format   string `mapstructure:"format" yaml:"format"`
}

// Load reads a CompareConfig from the given YAML file.
func Load(configPath string) (*CompareConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetDefault("format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg CompareConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// validate is a helper to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks the configuration before any file is opened.
func (c *CompareConfig) Validate() error {
	if err := validate(c.FileA != "", "file_a is required"); err != nil {
		return err
	}
	if err := validate(c.FileB != "", "file_b is required"); err != nil {
		return err
	}
	if err := validate(c.ColumnGroupWidth >= 0, "column_group_width must not be negative"); err != nil {
		return err
	}
	if err := validate(c.SortBudgetRows >= 0, "sort_budget_rows must not be negative"); err != nil {
		return err
	}
	if err := validate(c.MaxDiffs >= 0, "max_diffs must not be negative"); err != nil {
		return err
	}
	return validate(c.Format == "text" || c.Format == "json", "format must be text or json, got %q", c.Format)
}
