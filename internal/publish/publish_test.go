package publish

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithLabel(t *testing.T) {
	p := NewWithDelay(0)

	dep, err := p.Publish(context.Background(), "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "jane-doe", dep.Label)
	assert.Equal(t, "https://jane-doe.vercel.app", dep.URL)
}

func TestPublishGeneratesLabel(t *testing.T) {
	p := NewWithDelay(0)

	dep, err := p.Publish(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dep.Label, "digitalresume-"))
	assert.Regexp(t, `^https://digitalresume-[a-z0-9]{6}\.vercel\.app$`, dep.URL)
}

func TestPublishRejectsInvalidLabel(t *testing.T) {
	p := NewWithDelay(0)

	for _, label := range []string{"Jane Doe", "UPPER", "under_score", "dot.com"} {
		_, err := p.Publish(context.Background(), label)
		var invalid *InvalidLabelError
		require.ErrorAs(t, err, &invalid, "label %q", label)
	}
}

func TestPublishHonorsContextCancellation(t *testing.T) {
	p := NewWithDelay(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Publish(ctx, "jane")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "janedoe-2026", SanitizeLabel("Jane Doe-2026!"))
	assert.Equal(t, "", SanitizeLabel("???"))
}
