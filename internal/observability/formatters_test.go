package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/portfolio-builder/internal/types"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

func TestPrintResumeData(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintResumeData(&types.ResumeData{
		Name:   "Jane Doe",
		Title:  "Staff Engineer",
		Email:  "jane@example.com",
		Skills: []string{"Go", "Postgres"},
		Experience: []types.Experience{
			{Role: "Staff Engineer", Company: "Acme", Duration: "2019 - Present"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "EXTRACTED RESUME")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "Staff Engineer @ Acme")
}

func TestPrintResumeDataNil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResumeData(nil)
	assert.Empty(t, buf.String())
}

func TestPrintStrategy(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStrategy(types.DefaultStrategy())

	out := buf.String()
	assert.Contains(t, out, "STYLE STRATEGY")
	assert.Contains(t, out, "modern")
	assert.Contains(t, out, "Inter / Inter")
}

func TestPrintUsageStats(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintUsageStats(usage.Stats{CreationsRemaining: 2, EditsRemaining: 48, MaxEdits: 50})

	out := buf.String()
	assert.Contains(t, out, "USAGE")
	assert.Contains(t, out, "48 / 50")
}

func TestBoxTruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)
	printer.PrintResumeData(&types.ResumeData{
		Name:  strings.Repeat("x", 120),
		Title: "t",
	})

	for _, line := range strings.Split(buf.String(), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}
