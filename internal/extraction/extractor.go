// Package extraction turns raw resume content into structured ResumeData
// using LLM extraction with a constrained response schema.
package extraction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/prompts"
	"github.com/jonathan/portfolio-builder/internal/sanitize"
	"github.com/jonathan/portfolio-builder/internal/types"
)

// resumeSchema constrains the extraction response to the ResumeData shape.
// The required list matches what site generation cannot proceed without.
var resumeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":     {Type: genai.TypeString},
		"title":    {Type: genai.TypeString},
		"summary":  {Type: genai.TypeString, Description: "A compelling professional summary, 2-3 sentences."},
		"email":    {Type: genai.TypeString},
		"phone":    {Type: genai.TypeString},
		"location": {Type: genai.TypeString},
		"skills": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"experience": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"role":        {Type: genai.TypeString},
					"company":     {Type: genai.TypeString},
					"duration":    {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"role", "company", "duration", "description"},
			},
		},
		"education": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"degree": {Type: genai.TypeString},
					"school": {Type: genai.TypeString},
					"year":   {Type: genai.TypeString},
				},
				Required: []string{"degree", "school", "year"},
			},
		},
		"socials": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"platform": {Type: genai.TypeString},
					"url":      {Type: genai.TypeString},
				},
				Required: []string{"platform", "url"},
			},
		},
	},
	Required: []string{"name", "title", "summary", "skills", "experience"},
}

// Extractor extracts structured resume data via an injected LLM client.
type Extractor struct {
	client llm.Client
}

// New creates an Extractor backed by the given client.
func New(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// FromText extracts ResumeData from pasted or file-loaded resume text.
// The text is sanitized before it reaches the prompt. Extraction is a
// single attempt; callers decide whether to re-run it.
func (e *Extractor) FromText(ctx context.Context, resumeText string) (*types.ResumeData, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, &ValidationError{Message: "resume text is empty"}
	}

	template := prompts.MustGet("extraction.json", "extract-resume-text")
	prompt := prompts.Format(template, map[string]string{
		"ResumeText": sanitize.Strip(resumeText),
	})

	responseText, err := e.client.GenerateStructured(ctx, llm.TierStandard, resumeSchema, llm.Text(prompt))
	if err != nil {
		return nil, &APICallError{
			Message: "failed to extract resume data",
			Cause:   err,
		}
	}

	return decodeResume(responseText)
}

// FromDocument extracts ResumeData from a binary document such as a PDF.
// The payload is attached as an opaque blob, never inlined into the prompt.
func (e *Extractor) FromDocument(ctx context.Context, mimeType string, data []byte) (*types.ResumeData, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Message: "document is empty"}
	}

	prompt := prompts.MustGet("extraction.json", "extract-resume-document")

	responseText, err := e.client.GenerateStructured(ctx, llm.TierStandard, resumeSchema,
		llm.Text(prompt),
		llm.Blob{MIMEType: mimeType, Data: data},
	)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to extract resume data from document",
			Cause:   err,
		}
	}

	return decodeResume(responseText)
}

func decodeResume(jsonText string) (*types.ResumeData, error) {
	var resume types.ResumeData
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(jsonText)), &resume); err != nil {
		return nil, &ParseError{
			Message: "failed to parse extraction response",
			Cause:   err,
		}
	}

	if err := resume.Validate(); err != nil {
		return nil, &ValidationError{
			Message: "extraction is missing required resume fields",
			Cause:   err,
		}
	}

	return &resume, nil
}
