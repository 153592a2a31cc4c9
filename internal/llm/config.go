// Package llm provides centralized LLM configuration and client abstractions.
// This package isolates provider non-determinism so the pipeline can be
// tested against a fixture-returning stub.
package llm

// ModelTier names how much reasoning a pipeline stage needs. Components
// pick a tier, never a model, so model upgrades happen in one place.
type ModelTier string

const (
	// TierLite handles cheap calls such as design-strategy selection.
	TierLite ModelTier = "lite"
	// TierStandard handles extraction, site assembly and the print resume.
	TierStandard ModelTier = "standard"
	// TierAdvanced handles the polish pass and guarded edits.
	TierAdvanced ModelTier = "advanced"
)

// Provider identifies an LLM backend.
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Config maps tiers to concrete model names for one provider.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the Gemini 2.5 family mapping used in production.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel resolves a tier to a model name, degrading to standard and
// then lite when the requested tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with one tier overridden. The
// receiver is not modified.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
