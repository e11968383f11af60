package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Tally - budget tracking and cost-alert engine",
	Long: `Tally tracks production spending against budget ceilings and records
cost alerts when thresholds are crossed.

Budgets cover individual VIPs, producers, departments or the whole
production. Charges are never blocked: overage is tracked and alerted,
with a deduplicated escalation ladder (WARNING, CRITICAL, EXCEEDED) per
budget cycle.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "tally.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
