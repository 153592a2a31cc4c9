// Package pipeline provides the high-level orchestration for the site
// generation process: extract, select style, assemble, polish.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/portfolio-builder/internal/assembly"
	"github.com/jonathan/portfolio-builder/internal/extraction"
	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/polish"
	"github.com/jonathan/portfolio-builder/internal/strategy"
	"github.com/jonathan/portfolio-builder/internal/types"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

// ProgressEvent represents a progress update during pipeline execution.
// Percent is monotonic over the run.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Document is an opaque binary resume attachment.
type Document struct {
	MIMEType string
	Data     []byte
}

// Input holds one generation request. Exactly one of ResumeText or
// Document should be set; Document wins when both are.
type Input struct {
	ResumeText  string
	Document    *Document
	Preferences *types.UserPreferences
}

// Result holds the committed outputs of a successful run.
type Result struct {
	Resume   *types.ResumeData
	Strategy *types.StyleStrategy
	SiteHTML string
}

// Pipeline orchestrates the generation stages against one LLM client and
// one usage ledger.
type Pipeline struct {
	extractor *extraction.Extractor
	selector  *strategy.Selector
	assembler *assembly.Assembler
	polisher  *polish.Polisher
	ledger    *usage.Ledger
}

// New creates a Pipeline with all stages bound to the given client.
func New(client llm.Client, ledger *usage.Ledger) *Pipeline {
	return &Pipeline{
		extractor: extraction.New(client),
		selector:  strategy.New(client),
		assembler: assembly.New(client),
		polisher:  polish.New(client),
		ledger:    ledger,
	}
}

// Run executes the full generation sequence. The creation counter is
// incremented only after every stage succeeds; on any failure nothing is
// committed and the error is returned. Run does not check the creation
// quota itself, callers gate on the ledger before invoking it.
func (p *Pipeline) Run(ctx context.Context, input Input, onProgress ProgressCallback) (*Result, error) {
	emit := func(percent int, label string) {
		if onProgress != nil {
			onProgress(ProgressEvent{Percent: percent, Label: label})
		}
	}

	prefs := input.Preferences
	if prefs == nil {
		prefs = &types.UserPreferences{}
	}

	emit(5, "Initializing AI workspace...")

	emit(15, "Reading resume document...")
	var resume *types.ResumeData
	var err error
	if input.Document != nil {
		resume, err = p.extractor.FromDocument(ctx, input.Document.MIMEType, input.Document.Data)
	} else {
		resume, err = p.extractor.FromText(ctx, input.ResumeText)
	}
	if err != nil {
		return nil, fmt.Errorf("resume extraction failed: %w", err)
	}
	emit(30, "Extracting skills & experience...")

	emit(40, fmt.Sprintf("Analyzing %s design patterns...", industryLabel(prefs)))
	strat := p.selector.Select(ctx, resume, prefs)
	emit(50, fmt.Sprintf("Generating %s layout system...", strat.Theme))

	baseHTML, err := p.assembler.Assemble(ctx, resume, strat)
	if err != nil {
		return nil, fmt.Errorf("site assembly failed: %w", err)
	}
	emit(75, "Compiling components & writing code...")

	emit(85, "Enhancing typography & animations...")
	polishedHTML, err := p.polisher.Polish(ctx, baseHTML, strat)
	if err != nil {
		return nil, fmt.Errorf("site polish failed: %w", err)
	}
	emit(95, "Finalizing build...")

	p.ledger.IncrementCreationCount()
	log.Info().Str("theme", string(strat.Theme)).Msg("site generation complete")

	emit(100, "Done")
	return &Result{
		Resume:   resume,
		Strategy: strat,
		SiteHTML: polishedHTML,
	}, nil
}

func industryLabel(prefs *types.UserPreferences) string {
	if prefs.Industry != "" {
		return prefs.Industry
	}
	return "your industry's"
}
