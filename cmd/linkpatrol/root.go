// Package main provides the entry point for the linkpatrol CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bcsdweb/linkpatrol/internal/checker"
)

// NewRootCmd creates the root command for linkpatrol.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkpatrol",
		Short: "Broken link reporting for the district's public websites",
		Long: `linkpatrol runs the external LinkChecker tool against a fixed list of
school district websites, parses its CSV output, and writes per-site and
summary Markdown reports with run-over-run deltas.

Each invocation of 'check' creates a timestamped run directory under the
output root containing the raw CSV output, per-site reports, a machine
readable issues.json snapshot, the run log, and an aggregate summary.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Tool-level failures (linkchecker
// missing or reporting a program error) exit with code 2 so cron can
// tell them apart from ordinary CLI errors.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errToolFailure) || errors.Is(err, checker.ErrNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
