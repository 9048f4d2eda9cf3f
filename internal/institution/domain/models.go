package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Institution struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	NameKO    string       `gorm:"column:name_ko;not null" json:"name_ko"`
	NameEN    string       `gorm:"column:name_en;not null" json:"name_en"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Institution) TableName() string {
	return "institutions"
}
