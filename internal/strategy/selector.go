// Package strategy selects the visual design system for a generated site.
// Selection never hard-fails: any error degrades to the default strategy.
package strategy

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/prompts"
	"github.com/jonathan/portfolio-builder/internal/types"
)

var strategySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"theme": {
			Type: genai.TypeString,
			Enum: []string{"modern", "minimal", "creative", "professional"},
		},
		"layout": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"hero": {
					Type: genai.TypeString,
					Enum: []string{"centered", "editorial", "split"},
				},
				"experience": {
					Type: genai.TypeString,
					Enum: []string{"timeline", "grid"},
				},
				"skills": {
					Type: genai.TypeString,
					Enum: []string{"badges", "minimal"},
				},
			},
			Required: []string{"hero", "experience", "skills"},
		},
		"colorPalette": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"primary":    {Type: genai.TypeString, Description: "Tailwind text class for headings, e.g. text-zinc-900"},
				"secondary":  {Type: genai.TypeString, Description: "Tailwind text class for subheadings"},
				"background": {Type: genai.TypeString, Description: "Tailwind bg class for the page"},
				"surface":    {Type: genai.TypeString, Description: "Tailwind bg class for raised sections"},
				"text":       {Type: genai.TypeString, Description: "Tailwind text class for body copy"},
			},
			Required: []string{"primary", "secondary", "background", "surface", "text"},
		},
		"fontPairing": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"heading":   {Type: genai.TypeString},
				"body":      {Type: genai.TypeString},
				"importUrl": {Type: genai.TypeString, Description: "Google Fonts CSS URL covering both fonts"},
			},
			Required: []string{"heading", "body", "importUrl"},
		},
	},
	Required: []string{"theme", "layout", "colorPalette", "fontPairing"},
}

// Selector picks a style strategy from resume data and user preferences.
type Selector struct {
	client llm.Client
}

// New creates a Selector backed by the given client.
func New(client llm.Client) *Selector {
	return &Selector{client: client}
}

// Select determines the design system for a site. Explicit user preferences
// take priority over anything inferred from the resume. On any failure the
// default strategy is returned and the error is logged, never surfaced.
func (s *Selector) Select(ctx context.Context, resume *types.ResumeData, prefs *types.UserPreferences) *types.StyleStrategy {
	prompt := buildSelectionPrompt(resume, prefs)

	responseText, err := s.client.GenerateStructured(ctx, llm.TierLite, strategySchema, llm.Text(prompt))
	if err != nil {
		log.Warn().Err(err).Msg("style selection failed, using default strategy")
		return types.DefaultStrategy()
	}

	var strat types.StyleStrategy
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &strat); err != nil {
		log.Warn().Err(err).Msg("style selection returned malformed JSON, using default strategy")
		return types.DefaultStrategy()
	}

	strat.Normalize()
	fillPaletteDefaults(&strat)
	return &strat
}

func buildSelectionPrompt(resume *types.ResumeData, prefs *types.UserPreferences) string {
	prefsBlock := ""
	if prefs != nil && (prefs.Industry != "" || prefs.ExperienceLevel != "" || prefs.Style != "" || prefs.Color != "") {
		template := prompts.MustGet("strategy.json", "explicit-preferences")
		prefsBlock = prompts.Format(template, map[string]string{
			"Industry":        prefs.Industry,
			"ExperienceLevel": prefs.ExperienceLevel,
			"Style":           prefs.Style,
			"Color":           prefs.Color,
		})
	}

	template := prompts.MustGet("strategy.json", "select-style")
	return prompts.Format(template, map[string]string{
		"Role":        resume.Title,
		"Skills":      strings.Join(resume.Skills, ", "),
		"Summary":     resume.Summary,
		"Preferences": prefsBlock,
	})
}

// fillPaletteDefaults backfills empty palette and font fields so templates
// never receive a blank styling token.
func fillPaletteDefaults(strat *types.StyleStrategy) {
	def := types.DefaultStrategy()
	if strat.ColorPalette.Primary == "" {
		strat.ColorPalette.Primary = def.ColorPalette.Primary
	}
	if strat.ColorPalette.Secondary == "" {
		strat.ColorPalette.Secondary = def.ColorPalette.Secondary
	}
	if strat.ColorPalette.Background == "" {
		strat.ColorPalette.Background = def.ColorPalette.Background
	}
	if strat.ColorPalette.Surface == "" {
		strat.ColorPalette.Surface = def.ColorPalette.Surface
	}
	if strat.ColorPalette.Text == "" {
		strat.ColorPalette.Text = def.ColorPalette.Text
	}
	if strat.FontPairing.Heading == "" {
		strat.FontPairing.Heading = def.FontPairing.Heading
	}
	if strat.FontPairing.Body == "" {
		strat.FontPairing.Body = def.FontPairing.Body
	}
	if strat.FontPairing.ImportURL == "" {
		strat.FontPairing.ImportURL = def.FontPairing.ImportURL
	}
}
