package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/user-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SubscriptionStatus{Active: true, Plan: "pro"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	status, err := client.FetchSubscription(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "pro", status.Plan)
}

func TestSubscriptionActiveDegradesToFreeTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	assert.False(t, client.SubscriptionActive(context.Background(), "user-1"))

	// Unreachable provider degrades the same way.
	srv.Close()
	assert.False(t, client.SubscriptionActive(context.Background(), "user-1"))
}

func TestPurchaseEditPack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/purchases", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body["user_id"])
		assert.EqualValues(t, 20, body["credits"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Purchase{Credits: 20, Receipt: "rcpt_123"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	purchase, err := client.PurchaseEditPack(context.Background(), "user-1", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, purchase.Credits)
	assert.Equal(t, "rcpt_123", purchase.Receipt)
}

func TestPurchaseEditPackRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.PurchaseEditPack(context.Background(), "user-1", 20)
	require.Error(t, err)
}

func TestPurchaseEditPackValidatesCredits(t *testing.T) {
	client := NewClient("http://localhost:0", "")
	_, err := client.PurchaseEditPack(context.Background(), "user-1", 0)
	require.Error(t, err)
}
