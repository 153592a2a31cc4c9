// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/portfolio-builder/internal/types"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResumeData outputs a human-readable summary of the extracted resume.
func (p *Printer) PrintResumeData(resume *types.ResumeData) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", resume.Name))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", resume.Title))
	if resume.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", resume.Email))
	}
	sb.WriteString("\n")

	if len(resume.Skills) > 0 {
		skills := strings.Join(resume.Skills, ", ")
		if len(skills) > 45 {
			skills = skills[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Skills:   %s\n", skills))
		sb.WriteString("\n")
	}

	if len(resume.Experience) > 0 {
		sb.WriteString("Experience:\n")
		count := min(len(resume.Experience), maxItemsToShow)
		for i := 0; i < count; i++ {
			exp := resume.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s @ %s (%s)\n", exp.Role, exp.Company, exp.Duration))
		}
		if len(resume.Experience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(resume.Experience)-maxItemsToShow))
		}
	}

	p.printBox("EXTRACTED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStrategy outputs the selected design system.
func (p *Printer) PrintStrategy(strat *types.StyleStrategy) {
	if strat == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Theme:      %s\n", strat.Theme))
	sb.WriteString(fmt.Sprintf("Hero:       %s\n", strat.Layout.Hero))
	sb.WriteString(fmt.Sprintf("Experience: %s\n", strat.Layout.Experience))
	sb.WriteString(fmt.Sprintf("Skills:     %s\n", strat.Layout.Skills))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Fonts:      %s / %s\n", strat.FontPairing.Heading, strat.FontPairing.Body))
	sb.WriteString(fmt.Sprintf("Primary:    %s\n", strat.ColorPalette.Primary))
	sb.WriteString(fmt.Sprintf("Background: %s", strat.ColorPalette.Background))

	p.printBox("STYLE STRATEGY", sb.String())
}

// PrintUsageStats outputs the current quota summary.
func (p *Printer) PrintUsageStats(stats usage.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Creations remaining today: %d\n", stats.CreationsRemaining))
	sb.WriteString(fmt.Sprintf("Edits remaining:           %d / %d", stats.EditsRemaining, stats.MaxEdits))

	p.printBox("USAGE", sb.String())
}
