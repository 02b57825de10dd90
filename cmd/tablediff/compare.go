package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/TFMV/tablediff/config"
	"github.com/TFMV/tablediff/logger"
	"github.com/TFMV/tablediff/pkg/core"
	"github.com/TFMV/tablediff/pkg/diff"
	"github.com/TFMV/tablediff/pkg/readers"
	"github.com/TFMV/tablediff/report"
)

// Exit codes of the compare command.
const (
	exitEquivalent  = 0
	exitDiffsFound  = 1
	exitConfigError = 2
	exitInputError  = 3
)

// compareOptions represents the options for the compare command.
type compareOptions struct {
	FileA             string
	FileB             string
	StrictColumnOrder bool
	ColumnGroupWidth  int
	SortBudgetRows    int
	ScratchDir        string
	MaxDiffs          int
	Format            string
	ConfigPath        string
	Quiet             bool
}

// newCompareCommand creates the compare command.
func newCompareCommand() *cobra.Command {
	opts := &compareOptions{
		Format: "text",
	}

	cmd := &cobra.Command{
		Use:   "compare [flags] FILE_A FILE_B",
		Short: "Compare two tabular files and report their differences",
		Long: `The compare command checks two tabular files for semantic equality.
Rows are matched on the identifier column (the first column of each file)
after sorting both inputs, so row order never matters. Column order does
not matter either unless --strict-column-order is set.

Memory is bounded by two knobs: --budget-rows caps how many rows each sort
holds before spilling to disk, and --group-width caps how many columns are
materialized per pass (smaller groups mean less memory but more passes
over the inputs).

Exit codes: 0 files are equivalent, 1 differences found, 2 configuration
or schema error, 3 malformed input or I/O error.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath != "" {
				if err := applyConfigFile(cmd, opts); err != nil {
					fmt.Fprintln(os.Stderr, "Error:", err)
					osExit(exitConfigError)
					return nil
				}
			}
			if len(args) == 2 {
				opts.FileA = args[0]
				opts.FileB = args[1]
			}
			if opts.FileA == "" || opts.FileB == "" {
				fmt.Fprintln(os.Stderr, "Error: two input files are required (as arguments or via --config)")
				osExit(exitConfigError)
				return nil
			}

			code, err := runCompare(opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			osExit(code)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.StrictColumnOrder, "strict-column-order", "s", false, "Require both files to list the same columns in the same order")
	cmd.Flags().IntVar(&opts.ColumnGroupWidth, "group-width", 0, "Columns compared per pass (0 = all columns in one pass)")
	cmd.Flags().IntVar(&opts.SortBudgetRows, "budget-rows", 0, "Rows each sort holds in memory before spilling (0 = default)")
	cmd.Flags().StringVar(&opts.ScratchDir, "scratch-dir", "", "Directory for sort spill files (default: system temp)")
	cmd.Flags().IntVar(&opts.MaxDiffs, "max-diffs", 0, "Stop after reporting this many differences (0 = no limit)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", opts.Format, "Report format (text, json)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "YAML config file with comparison settings")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress the progress spinner")

	return cmd
}

// applyConfigFile fills options from a config file, keeping any value that
// was set explicitly on the command line.
func applyConfigFile(cmd *cobra.Command, opts *compareOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", opts.ConfigPath, err)
	}

	opts.FileA = cfg.FileA
	opts.FileB = cfg.FileB
	if !cmd.Flags().Changed("strict-column-order") {
		opts.StrictColumnOrder = cfg.StrictColumnOrder
	}
	if !cmd.Flags().Changed("group-width") {
		opts.ColumnGroupWidth = cfg.ColumnGroupWidth
	}
	if !cmd.Flags().Changed("budget-rows") {
		opts.SortBudgetRows = cfg.SortBudgetRows
	}
	if !cmd.Flags().Changed("scratch-dir") {
		opts.ScratchDir = cfg.ScratchDir
	}
	if !cmd.Flags().Changed("max-diffs") {
		opts.MaxDiffs = cfg.MaxDiffs
	}
	if !cmd.Flags().Changed("format") {
		opts.Format = cfg.Format
	}
	return nil
}

// runCompare executes the comparison and returns the process exit code.
func runCompare(opts *compareOptions) (int, error) {
	defer logger.Sync()

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		cancel()
	}()

	reporter, err := report.NewReporter(opts.Format, os.Stdout)
	if err != nil {
		return exitConfigError, err
	}

	sourceA, err := readers.DefaultFactory.Create(core.SourceConfig{
		Type: readers.DetectType(opts.FileA),
		Path: opts.FileA,
	})
	if err != nil {
		return exitConfigError, err
	}
	sourceB, err := readers.DefaultFactory.Create(core.SourceConfig{
		Type: readers.DetectType(opts.FileB),
		Path: opts.FileB,
	})
	if err != nil {
		return exitConfigError, err
	}

	var spin *spinner.Spinner
	progress := func(chunk, total int) {}
	if !opts.Quiet && opts.Format == "text" {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		progress = func(chunk, total int) {
			spin.Suffix = fmt.Sprintf(" comparing column group %d/%d", chunk+1, total)
		}
	}

	differ, err := diff.NewDiffer(core.CompareOptions{
		StrictColumnOrder: opts.StrictColumnOrder,
		ColumnGroupWidth:  opts.ColumnGroupWidth,
		SortBudgetRows:    opts.SortBudgetRows,
		ScratchDir:        opts.ScratchDir,
		Progress:          progress,
	})
	if err != nil {
		return exitCodeFor(err), err
	}

	stream, err := differ.Compare(ctx, sourceA, sourceB)
	if err != nil {
		return exitCodeFor(err), err
	}
	defer stream.Close()

	if spin != nil {
		spin.Start()
		defer spin.Stop()
	}

	var reported int64
	for opts.MaxDiffs == 0 || reported < int64(opts.MaxDiffs) {
		d, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if spin != nil {
				spin.Stop()
			}
			return exitCodeFor(err), err
		}

		if spin != nil {
			spin.Stop()
			spin = nil
		}
		if err := reporter.Report(d); err != nil {
			return exitInputError, err
		}
		reported++
	}

	if spin != nil {
		spin.Stop()
		spin = nil
	}

	stream.Close()
	if err := reporter.Finish(stream.Summary()); err != nil {
		return exitInputError, err
	}

	if reported > 0 {
		return exitDiffsFound, nil
	}
	return exitEquivalent, nil
}

// exitCodeFor maps an engine error to the compare command's exit codes.
func exitCodeFor(err error) int {
	var configErr *core.ConfigError
	var schemaErr *core.SchemaError
	if errors.As(err, &configErr) || errors.As(err, &schemaErr) {
		return exitConfigError
	}
	return exitInputError
}
