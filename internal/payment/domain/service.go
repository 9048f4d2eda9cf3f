package domain

import (
	"context"
	"errors"
	"time"
)

type ConfirmCardRequest struct {
	UserID     string
	EventID    string
	PaymentKey string
	OrderID    string
	Amount     int64
}

type CreatePayPalOrderRequest struct {
	UserID  string
	EventID string
}

// PayPalOrder is the created provider order plus the quoted USD value the
// buyer will approve.
type PayPalOrder struct {
	ProviderOrderID string `json:"provider_order_id"`
	USDValue        string `json:"usd_value"`
}

type CapturePayPalOrderRequest struct {
	UserID          string
	EventID         string
	ProviderOrderID string
}

type RecordManualRequest struct {
	AttendeeID    string
	PayerName     string
	TransferredAt time.Time
	Note          string
}

type CancelRequest struct {
	PaymentID string
	Reason    string
}

type Service interface {
	ConfirmCard(context.Context, ConfirmCardRequest) (Payment, error)
	CreatePayPalOrder(context.Context, CreatePayPalOrderRequest) (PayPalOrder, error)
	CapturePayPalOrder(context.Context, CapturePayPalOrderRequest) (Payment, error)
	RecordManual(context.Context, RecordManualRequest) (Payment, error)
	// Cancel voids a completed payment: gateway cancel for card/paypal,
	// then the row is marked cancelled and kept.
	Cancel(context.Context, CancelRequest) (Payment, error)
	HasCompleted(ctx context.Context, attendeeID string) (bool, error)
	History(ctx context.Context, userID string) ([]Payment, error)
	ListByEvent(ctx context.Context, eventID string) ([]Payment, error)
	GetByID(ctx context.Context, paymentID string) (Payment, error)
}

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidID    = errors.New("invalid_id")
	ErrAlreadyPaid  = errors.New("already_paid")
	ErrNotCompleted = errors.New("payment_not_completed")
)
