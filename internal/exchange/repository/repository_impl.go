package repository

import (
	"context"

	"github.com/modoocon/modoocon/internal/exchange/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByPair(ctx context.Context, db *gorm.DB, pair string) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, pair, rate, fetched_at FROM exchange_rates WHERE pair = ?`,
		pair,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, rate *domain.ExchangeRate) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM exchange_rates WHERE pair = ?`, rate.Pair,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			`INSERT INTO exchange_rates (id, pair, rate, fetched_at) VALUES (?, ?, ?, ?)`,
			rate.ID,
			rate.Pair,
			rate.Rate,
			rate.FetchedAt,
		).Error
	})
}
