package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "w3rtctl",
	Short:         "Compile, validate, and verify w3rt workflow plans",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(
		newValidateCmd(),
		newExplainCmd(),
		newCompileCmd(),
		newVerifyCmd(),
		newTraceCmd(),
	)
}

// Execute runs the root command and returns the process exit code. Every
// error is surfaced as a single-line message on stderr, per spec.md §6.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
