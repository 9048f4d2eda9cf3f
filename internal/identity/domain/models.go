package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID                  snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email               string        `gorm:"not null;uniqueIndex" json:"email"`
	Name                string        `gorm:"not null" json:"name"`
	Locale              string        `gorm:"not null;default:ko" json:"locale"`
	IsStaff             bool          `gorm:"not null;default:false" json:"is_staff"`
	InstitutionID       *snowflake.ID `gorm:"column:institution_id" json:"institution_id,omitempty"`
	LastLoginAt         *time.Time    `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	DeletionWarningSent bool          `gorm:"not null;default:false" json:"-"`
	CreatedAt           time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
