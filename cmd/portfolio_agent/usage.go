package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-builder/internal/config"
	"github.com/jonathan/portfolio-builder/internal/observability"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show the current quota summary",
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := usage.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}
	ledger := usage.NewLedger(store)
	if cfg.SubscriptionActive {
		ledger.SetSubscriptionActive(true)
	}

	observability.NewPrinter(os.Stdout).PrintUsageStats(ledger.GetStats())
	return nil
}
