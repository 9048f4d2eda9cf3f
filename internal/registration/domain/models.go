package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Attendee struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	EventID         snowflake.ID  `gorm:"not null;index" json:"event_id"`
	UserID          *snowflake.ID `gorm:"column:user_id" json:"user_id,omitempty"`
	InstituteNameKO string        `gorm:"column:institute_name_ko;not null" json:"institute_name_ko"`
	InstituteNameEN string        `gorm:"column:institute_name_en;not null" json:"institute_name_en"`
	OrderID         string        `gorm:"not null" json:"order_id"`
	RegisteredAt    time.Time     `gorm:"not null" json:"registered_at"`
	// Tombstone fields, filled when the owning account is erased.
	UserDeletedAt *time.Time `gorm:"column:user_deleted_at" json:"user_deleted_at,omitempty"`
	UserEmail     string     `gorm:"column:user_email;not null" json:"user_email,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Attendee) TableName() string {
	return "attendees"
}

type CustomAnswer struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	AttendeeID snowflake.ID `gorm:"not null;index" json:"attendee_id"`
	QuestionID snowflake.ID `gorm:"not null" json:"question_id"`
	// Snapshot of the question text at registration time. Editing the
	// question later must not rewrite history.
	QuestionText string    `gorm:"not null" json:"question_text"`
	Answer       string    `gorm:"not null" json:"answer"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (CustomAnswer) TableName() string {
	return "custom_answers"
}
