// Package sanitize strips markup from user-supplied free text before it is
// embedded into an LLM prompt. This is the prompt-injection mitigation for
// the text path; binary attachments are mitigated by strict output schemas
// instead, since opaque payloads cannot be text-sanitized.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strip removes all HTML tags from the input and drops the content of
// script-bearing elements entirely. Plain text passes through unchanged
// apart from entity decoding. On a parse failure the input is returned
// as-is; parse failures on user text are not worth losing the message over.
func Strip(input string) string {
	if input == "" {
		return ""
	}
	// Fast path: nothing that could open a tag
	if !strings.ContainsAny(input, "<&") {
		return input
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return input
	}

	doc.Find("script, style, noscript, iframe, object, embed, template").Remove()

	return strings.TrimSpace(doc.Text())
}
