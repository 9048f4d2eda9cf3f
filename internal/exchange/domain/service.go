package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Provider quotes KRW per 1 USD.
type Provider interface {
	FetchUSDKRW(ctx context.Context) (decimal.Decimal, error)
}

type Service interface {
	// KRWToUSD converts a KRW amount to USD using the cached rate,
	// refreshing it from the provider when older than the TTL. The
	// stored USD→KRW quote is inverted for the conversion.
	KRWToUSD(ctx context.Context, amountKRW int64) (decimal.Decimal, error)
}

// ErrRateUnavailable means the provider failed and no cached rate exists.
var ErrRateUnavailable = errors.New("rate_unavailable")
