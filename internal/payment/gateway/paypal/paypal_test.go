package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/payment/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paypalStub struct {
	tokenRequests atomic.Int64
	handler       http.HandlerFunc
}

func newStubServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *paypalStub) {
	t.Helper()
	stub := &paypalStub{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			stub.tokenRequests.Add(1)
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "client_id", user)
			require.Equal(t, "client_secret", pass)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok_abc",
				"expires_in":   3600,
			})
			return
		}
		require.Equal(t, "Bearer tok_abc", r.Header.Get("Authorization"))
		stub.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

func newTestClient(baseURL string) *Client {
	return New(config.Config{
		PayPal: config.PayPalConfig{
			BaseURL:      baseURL,
			ClientID:     "client_id",
			ClientSecret: "client_secret",
		},
	})
}

func TestCreateOrderReusesCachedToken(t *testing.T) {
	var gotPayload map[string]any
	srv, stub := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/checkout/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ORDER-1", "status": "CREATED"})
	})

	client := newTestClient(srv.URL)
	orderID, err := client.CreateOrder(context.Background(), "103000abcd1234", "38.46")
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", orderID)
	assert.Equal(t, "CAPTURE", gotPayload["intent"])

	units, ok := gotPayload["purchase_units"].([]any)
	require.True(t, ok)
	require.Len(t, units, 1)
	unit := units[0].(map[string]any)
	assert.Equal(t, "103000abcd1234", unit["reference_id"])
	amount := unit["amount"].(map[string]any)
	assert.Equal(t, "USD", amount["currency_code"])
	assert.Equal(t, "38.46", amount["value"])

	_, err = client.CreateOrder(context.Background(), "103000abcd1234", "38.46")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stub.tokenRequests.Load())
}

func TestConfirmCaptureCompleted(t *testing.T) {
	srv, _ := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/checkout/orders/ORDER-1/capture", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-1",
			"status": "COMPLETED",
			"purchase_units": []map[string]any{{
				"payments": map[string]any{
					"captures": []map[string]any{{
						"id":     "CAPTURE-1",
						"status": "COMPLETED",
						"amount": map[string]string{"currency_code": "USD", "value": "38.46"},
					}},
				},
			}},
		})
	})

	client := newTestClient(srv.URL)
	provider, err := client.Confirm(context.Background(), gateway.ConfirmRequest{PaymentKey: "ORDER-1"})
	require.NoError(t, err)
	assert.Equal(t, "CAPTURE-1", provider.ProviderPaymentID)
	assert.Equal(t, int64(3846), provider.Amount)
	assert.Equal(t, "USD", provider.Currency)
}

func TestConfirmRejectsIncompleteCapture(t *testing.T) {
	srv, _ := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-1",
			"status": "PAYER_ACTION_REQUIRED",
		})
	})

	client := newTestClient(srv.URL)
	_, err := client.Confirm(context.Background(), gateway.ConfirmRequest{PaymentKey: "ORDER-1"})

	var provider *gateway.ProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, "PAYER_ACTION_REQUIRED", provider.Code)
}

func TestConfirmWithoutCredentials(t *testing.T) {
	client := New(config.Config{})
	_, err := client.Confirm(context.Background(), gateway.ConfirmRequest{PaymentKey: "ORDER-1"})
	assert.ErrorIs(t, err, gateway.ErrConfig)
}

func TestCancelRefundsCapture(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv, _ := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	client := newTestClient(srv.URL)
	require.NoError(t, client.Cancel(context.Background(), "CAPTURE-1", "event cancelled"))
	assert.Equal(t, "/v2/payments/captures/CAPTURE-1/refund", gotPath)
	assert.Equal(t, "event cancelled", gotBody["note_to_payer"])
}
