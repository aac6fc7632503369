package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/omc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect resolved configuration",
	Long: `Show the resolved omc configuration (compaction thresholds, swarm
lease defaults) after applying the environment-variable > .omc/config.yaml
> built-in-default precedence chain.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if GetOutput() == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		}

		fmt.Printf("output: %s\n", cfg.Output)
		fmt.Printf("compaction.context_limit: %d\n", cfg.Compaction.ContextLimit)
		fmt.Printf("compaction.warning_threshold: %.2f\n", cfg.Compaction.WarningThreshold)
		fmt.Printf("compaction.critical_threshold: %.2f\n", cfg.Compaction.CriticalThreshold)
		fmt.Printf("swarm.lease_timeout_minutes: %d\n", cfg.Swarm.LeaseTimeoutMinutes)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
