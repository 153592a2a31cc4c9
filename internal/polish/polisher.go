// Package polish runs the final quality pass over assembled site HTML.
package polish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/prompts"
	"github.com/jonathan/portfolio-builder/internal/types"
)

// Polisher refines site HTML via an injected LLM client.
type Polisher struct {
	client llm.Client
}

// New creates a Polisher backed by the given client.
func New(client llm.Client) *Polisher {
	return &Polisher{client: client}
}

// Polish upgrades typography, spacing, animation and micro-interactions in
// the assembled HTML. The result replaces the assembled document wholesale;
// malformed markup is passed through untouched.
func (p *Polisher) Polish(ctx context.Context, html string, strat *types.StyleStrategy) (string, error) {
	layoutJSON, err := json.Marshal(strat.Layout)
	if err != nil {
		return "", fmt.Errorf("failed to encode layout: %w", err)
	}

	template := prompts.MustGet("polish.json", "polish-site")
	prompt := prompts.Format(template, map[string]string{
		"HTML":       html,
		"Theme":      string(strat.Theme),
		"LayoutJSON": string(layoutJSON),
	})

	responseText, err := p.client.GenerateText(ctx, llm.TierAdvanced, llm.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to polish site: %w", err)
	}

	return llm.CleanHTMLBlock(responseText), nil
}
