package card

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/payment/gateway"
)

// Client talks to a Toss-style card payment REST API. Requests authenticate
// with HTTP basic auth where the secret key is the username and the password
// is empty.
type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func New(cfg config.Config) *Client {
	return &Client{
		baseURL:   cfg.Card.BaseURL,
		secretKey: cfg.Card.SecretKey,
		client:    &http.Client{Timeout: gateway.ClientTimeout},
	}
}

type confirmPayload struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type paymentResponse struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	TotalAmount int64  `json:"totalAmount"`
	Currency    string `json:"currency"`
	ApprovedAt  string `json:"approvedAt"`
	Receipt     struct {
		URL string `json:"url"`
	} `json:"receipt"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Confirm(ctx context.Context, req gateway.ConfirmRequest) (*gateway.ProviderPayment, error) {
	if c.secretKey == "" {
		return nil, gateway.ErrConfig
	}

	payload := confirmPayload{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     req.Amount,
	}
	var resp paymentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payments/confirm", payload, &resp); err != nil {
		return nil, err
	}

	if resp.TotalAmount != req.Amount {
		return nil, &gateway.AmountMismatchError{Want: req.Amount, Got: resp.TotalAmount}
	}

	currency := resp.Currency
	if currency == "" {
		currency = "KRW"
	}
	approvedAt, _ := time.Parse(time.RFC3339, resp.ApprovedAt)
	return &gateway.ProviderPayment{
		ProviderPaymentID: resp.PaymentKey,
		Amount:            resp.TotalAmount,
		Currency:          currency,
		ApprovedAt:        approvedAt,
	}, nil
}

func (c *Client) Cancel(ctx context.Context, providerPaymentID, reason string) error {
	if c.secretKey == "" {
		return gateway.ErrConfig
	}

	payload := map[string]string{"cancelReason": reason}
	path := fmt.Sprintf("/v1/payments/%s/cancel", providerPaymentID)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// ReceiptURL looks up the provider's hosted receipt page for a payment.
func (c *Client) ReceiptURL(ctx context.Context, providerPaymentID string) (string, error) {
	if c.secretKey == "" {
		return "", gateway.ErrConfig
	}

	var resp paymentResponse
	path := fmt.Sprintf("/v1/payments/%s", providerPaymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Receipt.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &gateway.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &gateway.ProviderError{
			Status:  resp.StatusCode,
			Code:    apiErr.Code,
			Message: apiErr.Message,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode card gateway response: %w", err)
		}
	}
	return nil
}
