// Package publish simulates deploying a generated site to a hosting
// subdomain. No network traffic happens; the deployment steps are paced
// with a fixed delay to mirror a real provider.
package publish

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Domain is the hosting domain deployments land on.
const Domain = "vercel.app"

// DefaultDelay paces a simulated deployment.
const DefaultDelay = 2500 * time.Millisecond

const randomLabelPrefix = "digitalresume-"

var (
	validLabel   = regexp.MustCompile(`^[a-z0-9-]+$`)
	invalidRunes = regexp.MustCompile(`[^a-z0-9-]`)
)

// Deployment describes one published site.
type Deployment struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// InvalidLabelError is returned for subdomains that are not URL friendly.
type InvalidLabelError struct {
	Label string
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("invalid subdomain %q: only lowercase letters, digits and hyphens are allowed", e.Label)
}

// Publisher simulates deployments.
type Publisher struct {
	delay time.Duration
}

// New creates a Publisher with the default pacing delay.
func New() *Publisher {
	return &Publisher{delay: DefaultDelay}
}

// NewWithDelay creates a Publisher with a custom pacing delay.
func NewWithDelay(delay time.Duration) *Publisher {
	return &Publisher{delay: delay}
}

// Publish "deploys" the site under the given subdomain label. An empty
// label gets a generated one. The HTML itself is not transmitted anywhere.
func (p *Publisher) Publish(ctx context.Context, label string) (*Deployment, error) {
	if label == "" {
		label = randomLabel()
	}
	if !validLabel.MatchString(label) {
		return nil, &InvalidLabelError{Label: label}
	}

	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &Deployment{
		Label: label,
		URL:   fmt.Sprintf("https://%s.%s", label, Domain),
	}, nil
}

// SanitizeLabel lowercases the input and strips every character that is
// not URL friendly, matching what the subdomain input field accepts.
func SanitizeLabel(input string) string {
	return invalidRunes.ReplaceAllString(strings.ToLower(input), "")
}

func randomLabel() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return randomLabelPrefix + string(suffix)
}
