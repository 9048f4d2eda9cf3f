package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PairUSDKRW is the only pair the system trades in: the stored rate is KRW
// per 1 USD as quoted by the provider.
const PairUSDKRW = "USDKRW"

type ExchangeRate struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Pair      string          `gorm:"not null;uniqueIndex" json:"pair"`
	Rate      decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"rate"`
	FetchedAt time.Time       `gorm:"not null" json:"fetched_at"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}
