package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "omc",
	Short: "Orchestration Management Core",
	Long: `omc is the host-facing substrate behind an assistant session: hook
dispatch, multi-agent task pool coordination, preemptive compaction
warnings, error recovery, model routing, and project memory.

Core Commands:
  hook     Process a single hook invocation from stdin
  swarm    Manage the multi-agent task pool
  memory   Inspect and refresh project memory
  version  Show version information`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table)")
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetOutput returns the output format for use by subcommands.
func GetOutput() string {
	return output
}
