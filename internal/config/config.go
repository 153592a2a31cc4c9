// Package config loads application configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server and CLI read from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int `envconfig:"PORT" default:"8080"`

	// GeminiAPIKey authenticates against the model provider.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// DataDir is where the usage ledger and the snapshot database live.
	DataDir string `envconfig:"DATA_DIR" default:"."`

	// DatabaseURL, when set, stores snapshots in Postgres instead of the
	// local SQLite file.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// BillingURL and BillingToken configure the billing provider. Unset
	// means purchases are granted locally without confirmation.
	BillingURL   string `envconfig:"BILLING_URL"`
	BillingToken string `envconfig:"BILLING_TOKEN"`

	// JWTSecret, when set, requires bearer tokens on the API.
	JWTSecret string `envconfig:"JWT_SECRET"`

	// UserID identifies this installation towards the billing provider.
	UserID string `envconfig:"USER_ID"`

	// SubscriptionActive overrides the billing lookup, mainly for local
	// development.
	SubscriptionActive bool `envconfig:"SUBSCRIPTION_ACTIVE"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields every mode of operation needs.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}
