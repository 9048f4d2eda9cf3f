package repository

import (
	"context"

	"github.com/modoocon/modoocon/internal/settings/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB) (*domain.AccountSettings, error) {
	var settings domain.AccountSettings
	err := db.WithContext(ctx).Raw(
		`SELECT id, retention_years, warning_days, updated_at FROM account_settings WHERE id = 1`,
	).Scan(&settings).Error
	if err != nil {
		return nil, err
	}
	if settings.ID == 0 {
		return nil, nil
	}
	return &settings, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, settings *domain.AccountSettings) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO account_settings (id, retention_years, warning_days, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET retention_years = EXCLUDED.retention_years,
		 warning_days = EXCLUDED.warning_days, updated_at = EXCLUDED.updated_at`,
		settings.RetentionYears,
		settings.WarningDays,
		settings.UpdatedAt,
	).Error
}
