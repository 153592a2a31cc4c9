package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-builder/internal/types"
)

func TestAllFragmentsLoaded(t *testing.T) {
	for name, markup := range fragments {
		assert.NotEmpty(t, strings.TrimSpace(markup), "fragment %s is empty", name)
	}
	assert.Len(t, fragments, 10)
}

func TestSelectKnownVariants(t *testing.T) {
	sel := Select(types.Layout{
		Hero:       types.HeroEditorial,
		Experience: types.ExperienceGrid,
		Skills:     types.SkillsMinimal,
	})

	assert.Equal(t, fragments["hero_editorial"], sel.Hero)
	assert.Equal(t, fragments["experience_grid"], sel.Experience)
	assert.Equal(t, fragments["skills_minimal"], sel.Skills)
	assert.Equal(t, fragments["header_default"], sel.Header)
	assert.Equal(t, fragments["footer_default"], sel.Footer)
}

func TestSelectUnknownVariantFallsBack(t *testing.T) {
	sel := Select(types.Layout{
		Hero:       types.HeroVariant("holographic"),
		Experience: types.ExperienceVariant("carousel"),
		Skills:     types.SkillsVariant("sparkline"),
	})

	assert.Equal(t, fragments["hero_centered"], sel.Hero)
	assert.Equal(t, fragments["experience_timeline"], sel.Experience)
	assert.Equal(t, fragments["skills_badges"], sel.Skills)
}

func TestSelectZeroValueLayout(t *testing.T) {
	sel := Select(types.Layout{})

	assert.Equal(t, fragments["hero_centered"], sel.Hero)
	assert.Equal(t, fragments["experience_timeline"], sel.Experience)
	assert.Equal(t, fragments["skills_badges"], sel.Skills)
}

func TestWrapperShell(t *testing.T) {
	w := Wrapper()
	require.NotEmpty(t, w)
	assert.Contains(t, w, "{{content}}")
	assert.Contains(t, w, "{{font_import}}")
	assert.Contains(t, w, "IntersectionObserver")
}

func TestLoopTemplatesPresent(t *testing.T) {
	assert.Contains(t, fragments["experience_timeline"], "AI Loop Template")
	assert.Contains(t, fragments["experience_grid"], "AI Loop Template")
	assert.Contains(t, fragments["skills_badges"], "AI Loop Template")
	assert.Contains(t, fragments["skills_minimal"], "AI Loop Template")
	assert.Contains(t, fragments["footer_default"], "AI Loop Template")
}
