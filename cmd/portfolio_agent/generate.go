package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-builder/internal/config"
	"github.com/jonathan/portfolio-builder/internal/ingestion"
	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/observability"
	"github.com/jonathan/portfolio-builder/internal/pipeline"
	"github.com/jonathan/portfolio-builder/internal/session"
	"github.com/jonathan/portfolio-builder/internal/types"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a portfolio site from a resume file",
	Long:  `Run the full generation pipeline once: extract the resume, pick a design system, assemble and polish the site, then write index.html to the output directory.`,
	RunE:  runGenerate,
}

var (
	genResume     string
	genOut        string
	genIndustry   string
	genExperience string
	genStyle      string
	genColor      string
	genAPIKey     string
	genVerbose    bool
)

func init() {
	generateCmd.Flags().StringVarP(&genResume, "resume", "r", "", "Path to the resume file (.txt, .md, .pdf or .docx)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", ".", "Output directory")
	generateCmd.Flags().StringVar(&genIndustry, "industry", "", "Target industry (optional)")
	generateCmd.Flags().StringVar(&genExperience, "experience-level", "", "Experience level (optional)")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "Preferred visual style (optional)")
	generateCmd.Flags().StringVar(&genColor, "color", "", "Preferred accent color (optional)")
	generateCmd.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print the extracted resume and design system")

	_ = generateCmd.MarkFlagRequired("resume")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if genAPIKey != "" {
		cfg.GeminiAPIKey = genAPIKey
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	source, err := ingestion.New(nil).FromFile(genResume)
	if err != nil {
		return err
	}

	store, err := usage.NewFileStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}
	ledger := usage.NewLedger(store)
	if cfg.SubscriptionActive {
		ledger.SetSubscriptionActive(true)
	}
	if !ledger.CanCreateNewSite() {
		return session.ErrCreationLimit
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	input := pipeline.Input{ResumeText: source.Text, Preferences: preferences()}
	if source.IsDocument() {
		input = pipeline.Input{Document: &pipeline.Document{MIMEType: source.MIMEType, Data: source.Data}, Preferences: input.Preferences}
	}

	result, err := pipeline.New(client, ledger).Run(ctx, input, func(event pipeline.ProgressEvent) {
		fmt.Printf("[%3d%%] %s\n", event.Percent, event.Label)
	})
	if err != nil {
		return err
	}

	if genVerbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintResumeData(result.Resume)
		printer.PrintStrategy(result.Strategy)
		printer.PrintUsageStats(ledger.GetStats())
	}

	if err := os.MkdirAll(genOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := filepath.Join(genOut, session.SiteExportName)
	if err := os.WriteFile(outPath, []byte(result.SiteHTML), 0o644); err != nil {
		return fmt.Errorf("failed to write site: %w", err)
	}

	fmt.Printf("Site written to %s\n", outPath)
	return nil
}

func preferences() *types.UserPreferences {
	prefs := types.UserPreferences{
		Industry:        genIndustry,
		ExperienceLevel: genExperience,
		Style:           genStyle,
		Color:           genColor,
	}
	if prefs == (types.UserPreferences{}) {
		return nil
	}
	return &prefs
}
