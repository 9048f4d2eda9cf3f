package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/payment/gateway"
	"github.com/shopspring/decimal"
)

// tokenSlack refreshes the cached OAuth token a minute before it expires.
const tokenSlack = 60 * time.Second

// Client implements the PayPal Orders v2 two-phase flow: create an order,
// have the buyer approve it, then capture.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(cfg config.Config) *Client {
	return &Client{
		baseURL:      cfg.PayPal.BaseURL,
		clientID:     cfg.PayPal.ClientID,
		clientSecret: cfg.PayPal.ClientSecret,
		client:       &http.Client{Timeout: gateway.ClientTimeout},
	}
}

func (c *Client) configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &gateway.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &gateway.ProviderError{Status: resp.StatusCode, Message: "oauth token request failed"}
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSlack)
	return c.accessToken, nil
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string      `json:"reference_id,omitempty"`
	Amount      orderAmount `json:"amount"`
	Payments    *struct {
		Captures []capture `json:"captures"`
	} `json:"payments,omitempty"`
}

type capture struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Amount orderAmount `json:"amount"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

// CreateOrder opens a USD order carrying the local order id as its
// reference. usdValue is a 2-decimal string from the exchange service.
func (c *Client) CreateOrder(ctx context.Context, orderID, usdValue string) (string, error) {
	if !c.configured() {
		return "", gateway.ErrConfig
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": orderID,
			"amount": map[string]string{
				"currency_code": "USD",
				"value":         usdValue,
			},
		}},
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &gateway.ProviderError{Status: http.StatusOK, Message: "order response missing id"}
	}
	return resp.ID, nil
}

// Confirm captures an approved order. The returned amount is whatever the
// provider reports as captured, in USD cents.
func (c *Client) Confirm(ctx context.Context, req gateway.ConfirmRequest) (*gateway.ProviderPayment, error) {
	if !c.configured() {
		return nil, gateway.ErrConfig
	}

	var resp orderResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", req.PaymentKey)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "COMPLETED" {
		return nil, &gateway.ProviderError{
			Status:  http.StatusOK,
			Code:    resp.Status,
			Message: "order capture did not complete",
		}
	}

	captured, err := firstCapture(resp)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(captured.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("parse captured amount %q: %w", captured.Amount.Value, err)
	}

	return &gateway.ProviderPayment{
		ProviderPaymentID: captured.ID,
		Amount:            amount.Shift(2).IntPart(),
		Currency:          captured.Amount.CurrencyCode,
		ApprovedAt:        time.Now().UTC(),
	}, nil
}

// Cancel refunds a capture in full.
func (c *Client) Cancel(ctx context.Context, providerPaymentID, reason string) error {
	if !c.configured() {
		return gateway.ErrConfig
	}

	payload := map[string]string{}
	if reason != "" {
		payload["note_to_payer"] = reason
	}
	path := fmt.Sprintf("/v2/payments/captures/%s/refund", providerPaymentID)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

func firstCapture(resp orderResponse) (capture, error) {
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, captured := range unit.Payments.Captures {
			if captured.Status == "COMPLETED" {
				return captured, nil
			}
		}
	}
	return capture{}, &gateway.ProviderError{Status: http.StatusOK, Message: "capture response missing completed capture"}
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &gateway.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &gateway.ProviderError{
			Status:  resp.StatusCode,
			Code:    apiErr.Name,
			Message: apiErr.Message,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode paypal response: %w", err)
		}
	}
	return nil
}
