package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-builder/internal/config"
	"github.com/jonathan/portfolio-builder/internal/editing"
	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Apply a natural-language edit to a generated site",
	Long:  `Send one edit instruction to the model for a previously generated HTML file. The file is rewritten in place when the edit is applied; refused or failed edits leave it untouched.`,
	RunE:  runEdit,
}

var (
	editFile        string
	editInstruction string
	editAPIKey      string
)

func init() {
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "Path to the generated HTML file")
	editCmd.Flags().StringVarP(&editInstruction, "instruction", "i", "", "Edit instruction, e.g. \"make the header larger\"")
	editCmd.Flags().StringVar(&editAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")

	_ = editCmd.MarkFlagRequired("file")
	_ = editCmd.MarkFlagRequired("instruction")
	rootCmd.AddCommand(editCmd)
}

func runEdit(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if editAPIKey != "" {
		cfg.GeminiAPIKey = editAPIKey
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	html, err := os.ReadFile(editFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", editFile, err)
	}

	store, err := usage.NewFileStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}
	ledger := usage.NewLedger(store)
	if cfg.SubscriptionActive {
		ledger.SetSubscriptionActive(true)
	}
	if !ledger.CanEditSite() {
		return fmt.Errorf("no edit credits left for this project")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	result := editing.New(client).EditSite(ctx, string(html), editInstruction)
	fmt.Println(result.Message)

	if result.Status != editing.StatusApplied {
		return nil
	}

	if err := os.WriteFile(editFile, []byte(result.HTML), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", editFile, err)
	}
	ledger.IncrementEditCount()
	fmt.Printf("Updated %s\n", editFile)
	return nil
}
