package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/exchange/domain"
	"github.com/shopspring/decimal"
)

const clientTimeout = 10 * time.Second

// HTTPProvider fetches the USD→KRW quote from an open exchange-rate API
// returning `{"result": "success", "rates": {"KRW": 1350.25, ...}}`.
type HTTPProvider struct {
	url    string
	client *http.Client
}

func New(cfg config.Config) domain.Provider {
	return &HTTPProvider{
		url:    cfg.Exchange.ProviderURL,
		client: &http.Client{Timeout: clientTimeout},
	}
}

type quoteResponse struct {
	Result string                 `json:"result"`
	Rates  map[string]json.Number `json:"rates"`
}

func (p *HTTPProvider) FetchUSDKRW(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchange rate provider returned %d", resp.StatusCode)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("decode exchange rate response: %w", err)
	}
	if quote.Result != "" && quote.Result != "success" {
		return decimal.Zero, fmt.Errorf("exchange rate provider result %q", quote.Result)
	}

	raw, ok := quote.Rates["KRW"]
	if !ok {
		return decimal.Zero, fmt.Errorf("exchange rate response missing KRW")
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse KRW rate: %w", err)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("non-positive KRW rate %s", rate)
	}
	return rate, nil
}
