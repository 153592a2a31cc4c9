// Package templates holds the section markup catalog used during site
// assembly. Fragments are Tailwind-based HTML with {{placeholder}} tokens
// and loop templates inside comments that the assembly model expands.
package templates

import (
	"embed"
	"fmt"

	"github.com/jonathan/portfolio-builder/internal/types"
)

//go:embed fragments/*.html
var fragmentFS embed.FS

// Section identifies one region of the generated page.
type Section string

const (
	SectionHeader     Section = "header"
	SectionHero       Section = "hero"
	SectionExperience Section = "experience"
	SectionSkills     Section = "skills"
	SectionFooter     Section = "footer"
)

// Selection carries the markup chosen for each page section, keyed the way
// the assembly prompt expects it.
type Selection struct {
	Header     string `json:"header"`
	Hero       string `json:"hero"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
	Footer     string `json:"footer"`
}

var fragments = map[string]string{}

func init() {
	names := []string{
		"header_default",
		"hero_centered",
		"hero_editorial",
		"hero_split",
		"experience_timeline",
		"experience_grid",
		"skills_badges",
		"skills_minimal",
		"footer_default",
		"wrapper",
	}
	for _, name := range names {
		data, err := fragmentFS.ReadFile("fragments/" + name + ".html")
		if err != nil {
			panic(fmt.Sprintf("templates: missing fragment %q: %v", name, err))
		}
		fragments[name] = string(data)
	}
}

// Hero returns the hero fragment for the variant, falling back to the
// centered variant when the variant is unknown.
func Hero(variant types.HeroVariant) string {
	if markup, ok := fragments["hero_"+string(variant)]; ok {
		return markup
	}
	return fragments["hero_centered"]
}

// Experience returns the experience fragment for the variant, falling back
// to the timeline variant when the variant is unknown.
func Experience(variant types.ExperienceVariant) string {
	if markup, ok := fragments["experience_"+string(variant)]; ok {
		return markup
	}
	return fragments["experience_timeline"]
}

// Skills returns the skills fragment for the variant, falling back to the
// badges variant when the variant is unknown.
func Skills(variant types.SkillsVariant) string {
	if markup, ok := fragments["skills_"+string(variant)]; ok {
		return markup
	}
	return fragments["skills_badges"]
}

// Header returns the navigation fragment. Only one variant exists today.
func Header() string {
	return fragments["header_default"]
}

// Footer returns the contact footer fragment. Only one variant exists today.
func Footer() string {
	return fragments["footer_default"]
}

// Wrapper returns the full-page HTML shell the assembled sections are
// injected into. It carries the font imports, fade-in keyframes and the
// scroll reveal script.
func Wrapper() string {
	return fragments["wrapper"]
}

// Select resolves a layout into concrete section markup. It never fails:
// unknown variants resolve to each section's default fragment.
func Select(layout types.Layout) Selection {
	return Selection{
		Header:     Header(),
		Hero:       Hero(layout.Hero),
		Experience: Experience(layout.Experience),
		Skills:     Skills(layout.Skills),
		Footer:     Footer(),
	}
}
