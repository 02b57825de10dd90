// Package main provides the entry point for the tablediff CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TFMV/tablediff/version"
)

var osExit = os.Exit // Allow overriding for tests

// Main entry point for the tablediff tool
func main() {
	rootCmd := &cobra.Command{
		Use:   "tablediff",
		Short: "tablediff compares two tabular files for semantic equality",
		Long: `tablediff checks whether two tabular files (CSV or Arrow IPC) contain
the same information, independent of row order and optionally of column
order. Files larger than memory are handled by sorting on disk and
comparing a bounded group of columns per pass.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of tablediff",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tablediff %s (built %s)\n", version.Version, version.BuildDate)
		},
	})

	rootCmd.AddCommand(newCompareCommand())
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(2)
	}
}
