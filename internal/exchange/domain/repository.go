package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByPair(ctx context.Context, db *gorm.DB, pair string) (*ExchangeRate, error)
	// Replace deletes any existing row for the pair and inserts the new one
	// in a single transaction, so at most one row per pair survives a
	// refresh race.
	Replace(ctx context.Context, db *gorm.DB, rate *ExchangeRate) error
}
