package cmd

import (
	"os"
	"path/filepath"

	"dtrsim/internal/logx"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	log     logx.Logger
)

// rootCmd is the base command (grounded on
// junjiewwang-perf-analysis/cmd/cli/cmd/root.go's PersistentPreRunE logger
// wiring).
var rootCmd = &cobra.Command{
	Use:   "dtrsim",
	Short: "Lower and simulate dynamic-tensor-rematerialization programs",
	Long: `dtrsim lowers a source DAG fixture into an Operators instruction tree and
drives it through a JIT simulator that tracks SRAM residency, eviction, and
rematerialization trips.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logx.LevelInfo
		if verbose {
			level = logx.LevelDebug
		}
		log = logx.New(level, os.Stderr)
		return nil
	},
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	binName := BinName()
	rootCmd.Example = `  # Lower and simulate a fixture, printing the trace to stdout
  ` + binName + ` run -p ./fixture.json

  # Simulate against an explicit config and a compressed trace file
  ` + binName + ` run -p ./fixture.json -c ./dtrsim.yaml --trace-out ./trace.txt.zst

  # Check a fixture for cycles and missing nodes without simulating
  ` + binName + ` validate -p ./fixture.json`
}

// GetLogger returns the logger configured by the root command's
// PersistentPreRunE.
func GetLogger() logx.Logger { return log }

// BinName returns the base name of the running executable.
func BinName() string { return filepath.Base(os.Args[0]) }
