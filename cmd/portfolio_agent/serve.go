package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-builder/internal/billing"
	"github.com/jonathan/portfolio-builder/internal/config"
	"github.com/jonathan/portfolio-builder/internal/history"
	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/server"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for site generation, chat edits, publishing and exports.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	store, err := usage.NewFileStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}
	ledger := usage.NewLedger(store)

	snapshots, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}

	var billingClient *billing.Client
	if cfg.BillingURL != "" {
		billingClient = billing.NewClient(cfg.BillingURL, cfg.BillingToken)
		ledger.SetSubscriptionActive(billingClient.SubscriptionActive(ctx, cfg.UserID))
	}
	if cfg.SubscriptionActive {
		ledger.SetSubscriptionActive(true)
	}

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		Client:    client,
		Ledger:    ledger,
		Snapshots: snapshots,
		Billing:   billingClient,
		JWTSecret: cfg.JWTSecret,
		UserID:    cfg.UserID,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// openSnapshotStore picks Postgres when DATABASE_URL is set, the local
// SQLite file otherwise.
func openSnapshotStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := history.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect snapshot store: %w", err)
		}
		log.Info().Msg("snapshot history backed by Postgres")
		return store, nil
	}

	store, err := history.OpenSQLite(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	log.Info().Str("dir", cfg.DataDir).Msg("snapshot history backed by SQLite")
	return store, nil
}
