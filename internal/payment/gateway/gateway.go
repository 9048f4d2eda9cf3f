package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ClientTimeout bounds every outbound provider call.
const ClientTimeout = 30 * time.Second

type ConfirmRequest struct {
	// PaymentKey is the provider-side payment or order identifier.
	PaymentKey string
	// OrderID is the local registration order id.
	OrderID string
	// Amount in the minor unit of the expected currency.
	Amount int64
}

// ProviderPayment is the provider's view of a settled payment.
type ProviderPayment struct {
	ProviderPaymentID string
	Amount            int64
	Currency          string
	ApprovedAt        time.Time
}

type Adapter interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*ProviderPayment, error)
	Cancel(ctx context.Context, providerPaymentID, reason string) error
}

// ErrConfig means the adapter has no credentials. Detected before any
// network call is attempted.
var ErrConfig = errors.New("gateway_not_configured")

// TransportError wraps network failures and timeouts reaching the provider.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError is a non-2xx response from the provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s (%s)", e.Status, e.Message, e.Code)
}

// AmountMismatchError means the settled amount differs from what was owed.
type AmountMismatchError struct {
	Want int64
	Got  int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: want %d, got %d", e.Want, e.Got)
}
