// Package printdoc generates the print-optimized HTML resume document that
// visually matches a generated site.
package printdoc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/prompts"
	"github.com/jonathan/portfolio-builder/internal/types"
)

// Generator produces print resume HTML via an injected LLM client.
type Generator struct {
	client llm.Client
}

// New creates a Generator backed by the given client.
func New(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate builds a standalone single-page resume document sharing the
// site's fonts and accent color. The result is cached by the session layer,
// generation happens at most once per site unless the document is edited.
func (g *Generator) Generate(ctx context.Context, resume *types.ResumeData, strat *types.StyleStrategy) (string, error) {
	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return "", fmt.Errorf("failed to encode resume data: %w", err)
	}
	stratJSON, err := json.Marshal(strat)
	if err != nil {
		return "", fmt.Errorf("failed to encode style strategy: %w", err)
	}

	template := prompts.MustGet("printdoc.json", "generate-print-resume")
	prompt := prompts.Format(template, map[string]string{
		"ResumeJSON":    string(resumeJSON),
		"StrategyJSON":  string(stratJSON),
		"FontImportURL": strat.FontPairing.ImportURL,
		"HeadingFont":   strat.FontPairing.Heading,
		"BodyFont":      strat.FontPairing.Body,
		"PrimaryColor":  strat.ColorPalette.Primary,
	})

	responseText, err := g.client.GenerateText(ctx, llm.TierStandard, llm.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate print resume: %w", err)
	}

	return llm.CleanHTMLBlock(responseText), nil
}
