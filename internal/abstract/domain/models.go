package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusSubmitted = "submitted"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

type Abstract struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID     snowflake.ID `gorm:"not null;index" json:"event_id"`
	UserID      snowflake.ID `gorm:"not null" json:"user_id"`
	Title       string       `gorm:"not null" json:"title"`
	Body        string       `gorm:"not null" json:"body"`
	Status      string       `gorm:"not null;default:submitted" json:"status"`
	SubmittedAt time.Time    `gorm:"not null" json:"submitted_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Abstract) TableName() string {
	return "abstracts"
}

type AbstractVote struct {
	AbstractID snowflake.ID `gorm:"primaryKey" json:"abstract_id"`
	ReviewerID snowflake.ID `gorm:"primaryKey" json:"reviewer_id"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AbstractVote) TableName() string {
	return "abstract_votes"
}

// TallyItem pairs an abstract with its vote count for the staff view.
type TallyItem struct {
	Abstract Abstract `json:"abstract"`
	Votes    int64    `json:"votes"`
}
