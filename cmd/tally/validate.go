package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"breakapp-hq/tally/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without starting the server.

Checks YAML syntax, applies defaults and environment overrides, and runs
the full validation pass (listen address, storage backend, threshold
ordering, cron schedule syntax).

Examples:
  # Validate the default config file
  tally validate

  # Validate a specific file
  tally validate --config /etc/tally/tally.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		fmt.Printf("  listen address: %s\n", cfg.Server.ListenAddress)
		fmt.Printf("  storage backend: %s\n", cfg.Storage.Backend)
		fmt.Printf("  warning threshold: %.2f\n", cfg.Budgets.DefaultWarningThreshold)
		fmt.Printf("  critical multiplier: %.2f\n", cfg.Budgets.CriticalMultiplier)
		fmt.Printf("  exceeded multiplier: %.2f\n", cfg.Budgets.ExceededMultiplier)
		if cfg.Budgets.SweepSchedule != "" {
			fmt.Printf("  sweep schedule: %s\n", cfg.Budgets.SweepSchedule)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
