// Package editing applies natural-language edit requests to generated HTML
// documents behind scope guardrails. An edit either applies, is refused by
// the model, or errors out leaving the document untouched.
package editing

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/prompts"
	"github.com/jonathan/portfolio-builder/internal/sanitize"
)

//go:embed response_schema.json
var responseSchemaJSON string

var responseSchema = gojsonschema.NewStringLoader(responseSchemaJSON)

// errorMessage is shown to the user when an edit fails for technical
// reasons. Failed edits never consume the document or its edit budget.
const errorMessage = "Sorry, I ran into a problem applying that change. Please try again."

// Status classifies the outcome of one edit request.
type Status string

const (
	// StatusApplied means the model changed the document.
	StatusApplied Status = "applied"
	// StatusRefused means the guardrails rejected the request and the
	// document is unchanged.
	StatusRefused Status = "refused"
	// StatusErrored means the request failed technically and the document
	// is unchanged.
	StatusErrored Status = "errored"
)

// Result is the outcome of one edit request. HTML always holds the
// document to keep: the updated markup when applied, the original
// otherwise.
type Result struct {
	Status  Status `json:"status"`
	HTML    string `json:"html"`
	Message string `json:"message"`
}

var editSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"html":    {Type: genai.TypeString, Description: "The full updated HTML, or the original HTML verbatim when refusing."},
		"message": {Type: genai.TypeString, Description: "The conversational reply shown to the user."},
	},
	Required: []string{"html", "message"},
}

type editResponse struct {
	HTML    string `json:"html"`
	Message string `json:"message"`
}

// Engine runs guarded edits via an injected LLM client.
type Engine struct {
	client llm.Client
}

// New creates an Engine backed by the given client.
func New(client llm.Client) *Engine {
	return &Engine{client: client}
}

// EditSite applies an instruction to portfolio site HTML.
func (e *Engine) EditSite(ctx context.Context, html, instruction string) *Result {
	return e.edit(ctx, "edit-site", html, instruction)
}

// EditResume applies an instruction to print resume HTML.
func (e *Engine) EditResume(ctx context.Context, html, instruction string) *Result {
	return e.edit(ctx, "edit-resume", html, instruction)
}

func (e *Engine) edit(ctx context.Context, promptKey, html, instruction string) *Result {
	template := prompts.MustGet("editing.json", promptKey)
	prompt := prompts.Format(template, map[string]string{
		"Instruction": sanitize.Strip(instruction),
		"HTML":        html,
	})

	responseText, err := e.client.GenerateStructured(ctx, llm.TierAdvanced, editSchema, llm.Text(prompt))
	if err != nil {
		log.Warn().Err(err).Str("prompt", promptKey).Msg("edit request failed")
		return errored(html)
	}

	resp, err := decodeEditResponse(responseText)
	if err != nil {
		log.Warn().Err(err).Str("prompt", promptKey).Msg("edit response rejected")
		return errored(html)
	}

	// A refusal is the model returning the document unchanged. Anything
	// else counts as an applied edit.
	if resp.HTML == html {
		return &Result{Status: StatusRefused, HTML: html, Message: resp.Message}
	}
	return &Result{Status: StatusApplied, HTML: resp.HTML, Message: resp.Message}
}

func decodeEditResponse(responseText string) (*editResponse, error) {
	cleaned := llm.CleanJSONBlock(responseText)

	validation, err := gojsonschema.Validate(responseSchema, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("failed to validate edit response: %w", err)
	}
	if !validation.Valid() {
		return nil, fmt.Errorf("edit response does not match schema: %v", validation.Errors())
	}

	var resp editResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse edit response: %w", err)
	}
	return &resp, nil
}

func errored(html string) *Result {
	return &Result{Status: StatusErrored, HTML: html, Message: errorMessage}
}
