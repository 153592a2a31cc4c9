// Package assembly builds the first full HTML rendering of a portfolio
// site from resume data, a style strategy and the section templates.
package assembly

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/prompts"
	"github.com/jonathan/portfolio-builder/internal/templates"
	"github.com/jonathan/portfolio-builder/internal/types"
)

// Assembler composes site HTML via an injected LLM client.
type Assembler struct {
	client llm.Client
}

// New creates an Assembler backed by the given client.
func New(client llm.Client) *Assembler {
	return &Assembler{client: client}
}

// Assemble produces the complete single-page site HTML. The output is the
// model's free-text response with code fences stripped; it is not validated
// as HTML here, the polish pass and preview tolerate imperfect markup.
func (a *Assembler) Assemble(ctx context.Context, resume *types.ResumeData, strat *types.StyleStrategy) (string, error) {
	selection := templates.Select(strat.Layout)

	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return "", fmt.Errorf("failed to encode resume data: %w", err)
	}
	stratJSON, err := json.Marshal(strat)
	if err != nil {
		return "", fmt.Errorf("failed to encode style strategy: %w", err)
	}
	templatesJSON, err := json.Marshal(selection)
	if err != nil {
		return "", fmt.Errorf("failed to encode template selection: %w", err)
	}

	template := prompts.MustGet("assembly.json", "assemble-site")
	prompt := prompts.Format(template, map[string]string{
		"ResumeJSON":    string(resumeJSON),
		"StrategyJSON":  string(stratJSON),
		"TemplatesJSON": string(templatesJSON),
		"Wrapper":       templates.Wrapper(),
	})

	responseText, err := a.client.GenerateText(ctx, llm.TierStandard, llm.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to assemble site: %w", err)
	}

	return llm.CleanHTMLBlock(responseText), nil
}
