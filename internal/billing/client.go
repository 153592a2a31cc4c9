// Package billing talks to the external auth/billing provider for the
// subscription flag and edit-pack purchases. The provider is optional
// infrastructure: when it is unreachable the builder degrades to the free
// tier instead of failing.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// SubscriptionStatus is the provider's answer for one user.
type SubscriptionStatus struct {
	Active bool   `json:"active"`
	Plan   string `json:"plan,omitempty"`
}

// Purchase is one completed edit-pack purchase.
type Purchase struct {
	Credits int    `json:"credits"`
	Receipt string `json:"receipt,omitempty"`
}

// Client is an HTTP client for the billing provider.
type Client struct {
	http *resty.Client
}

// NewClient creates a billing client for the provider at baseURL. The
// token authenticates this service against the provider.
func NewClient(baseURL, token string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Client{http: httpClient}
}

// FetchSubscription asks the provider whether the user's subscription is
// active.
func (c *Client) FetchSubscription(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/v1/subscriptions/" + userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription status: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("billing provider returned %s", resp.Status())
	}
	return &status, nil
}

// SubscriptionActive resolves the subscription flag, degrading to the free
// tier when the provider cannot be reached.
func (c *Client) SubscriptionActive(ctx context.Context, userID string) bool {
	status, err := c.FetchSubscription(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("billing provider unavailable, assuming free tier")
		return false
	}
	return status.Active
}

// PurchaseEditPack charges the user for an edit pack and returns the
// granted credits. Failures surface to the caller; credits are only
// added to the ledger after the provider confirms.
func (c *Client) PurchaseEditPack(ctx context.Context, userID string, credits int) (*Purchase, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("credits must be positive")
	}

	var purchase Purchase
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"user_id": userID, "credits": credits}).
		SetResult(&purchase).
		Post("/v1/purchases")
	if err != nil {
		return nil, fmt.Errorf("failed to purchase edit pack: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("billing provider rejected purchase: %s", resp.Status())
	}
	return &purchase, nil
}
