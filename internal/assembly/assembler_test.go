package assembly

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/llm/llmtest"
	"github.com/jonathan/portfolio-builder/internal/types"
)

func sampleInputs() (*types.ResumeData, *types.StyleStrategy) {
	resume := &types.ResumeData{
		Name:    "Jane Doe",
		Title:   "Staff Engineer",
		Summary: "Distributed systems engineer.",
		Skills:  []string{"Go"},
		Experience: []types.Experience{
			{Role: "Staff Engineer", Company: "Acme", Duration: "2019 - Present", Description: "Platform work."},
		},
	}
	return resume, types.DefaultStrategy()
}

func TestAssemble(t *testing.T) {
	stub := llmtest.NewStub(llmtest.Reply{Text: "<!DOCTYPE html><html><body>Jane Doe</body></html>"})
	assembler := New(stub)

	resume, strat := sampleInputs()
	html, err := assembler.Assemble(context.Background(), resume, strat)
	require.NoError(t, err)
	assert.Contains(t, html, "Jane Doe")

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierStandard, calls[0].Tier)
	assert.False(t, calls[0].Structured)

	// The prompt carries all three JSON inputs plus the page shell.
	assert.Contains(t, calls[0].Prompt, `"Jane Doe"`)
	assert.Contains(t, calls[0].Prompt, `"theme":"modern"`)
	assert.Contains(t, calls[0].Prompt, "id=\"hero\"")
	assert.Contains(t, calls[0].Prompt, "{{content}}")
}

func TestAssembleStripsCodeFences(t *testing.T) {
	stub := llmtest.NewStub(llmtest.Reply{Text: "```html\n<html><body>ok</body></html>\n```"})
	assembler := New(stub)

	resume, strat := sampleInputs()
	html, err := assembler.Assemble(context.Background(), resume, strat)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", html)
}

func TestAssemblePropagatesAPIError(t *testing.T) {
	stub := llmtest.NewStub(llmtest.Reply{Err: errors.New("rate limited")})
	assembler := New(stub)

	resume, strat := sampleInputs()
	_, err := assembler.Assemble(context.Background(), resume, strat)
	require.Error(t, err)
	assert.Len(t, stub.Calls(), 1)
}

func TestAssembleUnknownVariantsStillSelectTemplates(t *testing.T) {
	stub := llmtest.NewStub(llmtest.Reply{Text: "<html></html>"})
	assembler := New(stub)

	resume, strat := sampleInputs()
	strat.Layout.Hero = types.HeroVariant("nope")
	_, err := assembler.Assemble(context.Background(), resume, strat)
	require.NoError(t, err)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	// Fallback hero markup made it into the prompt.
	assert.Contains(t, calls[0].Prompt, "Available for new projects")
}
