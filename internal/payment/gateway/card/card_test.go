package card

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/payment/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return New(config.Config{
		Card: config.CardGatewayConfig{
			BaseURL:   baseURL,
			SecretKey: "test_sk_secret",
		},
	})
}

func TestConfirmSendsBasicAuthAndParsesPayment(t *testing.T) {
	var gotAuth string
	var gotBody confirmPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/confirm", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paymentKey":  "pay_123",
			"orderId":     gotBody.OrderID,
			"totalAmount": gotBody.Amount,
			"currency":    "KRW",
			"approvedAt":  "2026-03-02T10:30:00+09:00",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	provider, err := client.Confirm(context.Background(), gateway.ConfirmRequest{
		PaymentKey: "pay_123",
		OrderID:    "103000abcd1234",
		Amount:     50000,
	})
	require.NoError(t, err)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("test_sk_secret:"))
	assert.Equal(t, wantAuth, gotAuth)
	assert.Equal(t, "pay_123", gotBody.PaymentKey)
	assert.Equal(t, int64(50000), gotBody.Amount)

	assert.Equal(t, "pay_123", provider.ProviderPaymentID)
	assert.Equal(t, int64(50000), provider.Amount)
	assert.Equal(t, "KRW", provider.Currency)
	assert.False(t, provider.ApprovedAt.IsZero())
}

func TestConfirmAmountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paymentKey":  "pay_123",
			"totalAmount": 49000,
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Confirm(context.Background(), gateway.ConfirmRequest{
		PaymentKey: "pay_123",
		OrderID:    "103000abcd1234",
		Amount:     50000,
	})

	var mismatch *gateway.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(50000), mismatch.Want)
	assert.Equal(t, int64(49000), mismatch.Got)
}

func TestConfirmProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "INVALID_CARD",
			"message": "card declined",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Confirm(context.Background(), gateway.ConfirmRequest{
		PaymentKey: "pay_123",
		OrderID:    "103000abcd1234",
		Amount:     50000,
	})

	var provider *gateway.ProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, http.StatusBadRequest, provider.Status)
	assert.Equal(t, "INVALID_CARD", provider.Code)
	assert.Equal(t, "card declined", provider.Message)
}

func TestConfirmWithoutSecretKey(t *testing.T) {
	client := New(config.Config{})
	_, err := client.Confirm(context.Background(), gateway.ConfirmRequest{Amount: 1000})
	assert.ErrorIs(t, err, gateway.ErrConfig)
}

func TestCancelPostsReason(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"paymentKey": "pay_123"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	require.NoError(t, client.Cancel(context.Background(), "pay_123", "duplicate charge"))
	assert.Equal(t, "/v1/payments/pay_123/cancel", gotPath)
	assert.Equal(t, "duplicate charge", gotBody["cancelReason"])
}

func TestReceiptURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/pay_123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paymentKey": "pay_123",
			"receipt":    map[string]string{"url": "https://receipts.example/pay_123"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	url, err := client.ReceiptURL(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "https://receipts.example/pay_123", url)
}
