package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultRetentionYears = 2
	MinRetentionYears     = 1
	DefaultWarningDays    = 30
	MinWarningDays        = 7
)

// AccountSettings is a singleton row (id = 1) holding the retention policy
// the sweeper enforces.
type AccountSettings struct {
	ID             int16     `gorm:"primaryKey" json:"-"`
	RetentionYears int       `gorm:"not null" json:"retention_years"`
	WarningDays    int       `gorm:"not null" json:"warning_days"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccountSettings) TableName() string {
	return "account_settings"
}

// Defaults returns the compiled-in policy used when no row exists.
func Defaults() AccountSettings {
	return AccountSettings{
		ID:             1,
		RetentionYears: DefaultRetentionYears,
		WarningDays:    DefaultWarningDays,
	}
}

type SaveRequest struct {
	RetentionYears int
	WarningDays    int
}

type Service interface {
	Get(context.Context) (AccountSettings, error)
	// Save clamps below-floor values up to the floor rather than rejecting
	// them.
	Save(context.Context, SaveRequest) (AccountSettings, error)
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB) (*AccountSettings, error)
	Upsert(ctx context.Context, db *gorm.DB, settings *AccountSettings) error
}
