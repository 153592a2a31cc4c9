// Package types provides type definitions for structured data used throughout the portfolio-builder system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Experience is a single work history entry extracted from a resume.
type Experience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Education is a single education entry extracted from a resume.
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year"`
}

// SocialLink is an external profile link (GitHub, LinkedIn, etc.).
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ResumeData is the structured record extracted from a raw resume.
// It is immutable once produced; re-extraction replaces it wholesale.
type ResumeData struct {
	Name       string       `json:"name" validate:"required"`
	Title      string       `json:"title" validate:"required"`
	Summary    string       `json:"summary" validate:"required"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone,omitempty"`
	Location   string       `json:"location,omitempty"`
	Skills     []string     `json:"skills" validate:"required,min=1"`
	Experience []Experience `json:"experience" validate:"required,min=1"`
	Education  []Education  `json:"education"`
	Socials    []SocialLink `json:"socials,omitempty"`
}

// Validate checks that the extraction produced the required fields.
func (r *ResumeData) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Theme identifies the overall visual direction of a generated site.
type Theme string

// Theme values map one-to-one onto the selectable style ids.
const (
	ThemeModern       Theme = "modern"
	ThemeMinimal      Theme = "minimal"
	ThemeCreative     Theme = "creative"
	ThemeProfessional Theme = "professional"
)

// HeroVariant selects the hero section template.
type HeroVariant string

// ExperienceVariant selects the experience section template.
type ExperienceVariant string

// SkillsVariant selects the skills section template.
type SkillsVariant string

// Section layout variants. These are lookup keys into the template
// library, so unrecognized values must normalize to the defaults below.
const (
	HeroCentered  HeroVariant = "centered"
	HeroEditorial HeroVariant = "editorial"
	HeroSplit     HeroVariant = "split"

	ExperienceTimeline ExperienceVariant = "timeline"
	ExperienceGrid     ExperienceVariant = "grid"

	SkillsBadges  SkillsVariant = "badges"
	SkillsMinimal SkillsVariant = "minimal"
)

// Layout holds one template variant choice per section.
type Layout struct {
	Hero       HeroVariant       `json:"hero"`
	Experience ExperienceVariant `json:"experience"`
	Skills     SkillsVariant     `json:"skills"`
}

// ColorPalette holds five semantic styling-class tokens. The values are
// opaque to this system; they are substituted into templates by the model.
type ColorPalette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
}

// FontPairing names the heading and body fonts plus the font resource URL.
type FontPairing struct {
	Heading   string `json:"heading"`
	Body      string `json:"body"`
	ImportURL string `json:"importUrl"`
}

// StyleStrategy is the selected design system for one generated site.
// Produced once per generation, never for edits.
type StyleStrategy struct {
	Theme        Theme        `json:"theme"`
	Layout       Layout       `json:"layout"`
	ColorPalette ColorPalette `json:"colorPalette"`
	FontPairing  FontPairing  `json:"fontPairing"`
}

// Normalize replaces out-of-enum values with the defined defaults so the
// strategy can always be used as a template lookup key.
func (s *StyleStrategy) Normalize() {
	switch s.Theme {
	case ThemeModern, ThemeMinimal, ThemeCreative, ThemeProfessional:
	default:
		s.Theme = ThemeModern
	}
	switch s.Layout.Hero {
	case HeroCentered, HeroEditorial, HeroSplit:
	default:
		s.Layout.Hero = HeroCentered
	}
	switch s.Layout.Experience {
	case ExperienceTimeline, ExperienceGrid:
	default:
		s.Layout.Experience = ExperienceTimeline
	}
	switch s.Layout.Skills {
	case SkillsBadges, SkillsMinimal:
	default:
		s.Layout.Skills = SkillsBadges
	}
}

// DefaultStrategy returns the hardcoded fallback used when strategy
// selection fails. Generation never hard-fails on strategy selection.
func DefaultStrategy() *StyleStrategy {
	return &StyleStrategy{
		Theme: ThemeModern,
		Layout: Layout{
			Hero:       HeroCentered,
			Experience: ExperienceTimeline,
			Skills:     SkillsBadges,
		},
		ColorPalette: ColorPalette{
			Primary:    "text-zinc-900",
			Secondary:  "text-zinc-500",
			Background: "bg-white",
			Surface:    "bg-zinc-50",
			Text:       "text-zinc-600",
		},
		FontPairing: FontPairing{
			Heading:   "Inter",
			Body:      "Inter",
			ImportURL: "https://fonts.googleapis.com/css2?family=Inter:wght@300;400;600;700&display=swap",
		},
	}
}

// UserPreferences carries the explicit style choices a user made before
// generation. All fields are optional free text; explicit preferences win
// over inferred ones during strategy selection.
type UserPreferences struct {
	Industry        string `json:"industry,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
	Style           string `json:"style,omitempty"`
	Color           string `json:"color,omitempty"`
}

// Role identifies the author of a chat message.
type Role string

// Chat roles. The log alternates freely; there is no turn enforcement.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one entry in the append-only session chat log.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
