package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	QuestionKindText     = "text"
	QuestionKindCheckbox = "checkbox"
)

const (
	TemplateRegistrationConfirmed = "registration_confirmed"
	TemplatePaymentReceipt        = "payment_receipt"
	TemplateDeletionWarning       = "deletion_warning"
)

type Event struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug                 string       `gorm:"not null;uniqueIndex" json:"slug"`
	Name                 string       `gorm:"not null" json:"name"`
	Description          string       `gorm:"not null" json:"description"`
	StartsAt             time.Time    `gorm:"not null" json:"starts_at"`
	EndsAt               time.Time    `gorm:"not null" json:"ends_at"`
	RegistrationOpensAt  time.Time    `gorm:"not null" json:"registration_opens_at"`
	RegistrationClosesAt time.Time    `gorm:"not null" json:"registration_closes_at"`
	Capacity             int          `gorm:"not null;default:0" json:"capacity"`
	FeeAmount            int64        `gorm:"not null;default:0" json:"fee_amount"`
	FeeCurrency          string       `gorm:"not null;default:KRW" json:"fee_currency"`
	RequiresInstitution  bool         `gorm:"not null;default:false" json:"requires_institution"`
	InvitationOnly       bool         `gorm:"not null;default:false" json:"invitation_only"`
	InvitationCode       string       `gorm:"not null;default:''" json:"-"`
	MaxVotes             int          `gorm:"not null;default:0" json:"max_votes"`
	Published            bool         `gorm:"not null;default:false" json:"published"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

type CustomQuestion struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	EventID   snowflake.ID   `gorm:"not null;index" json:"event_id"`
	Position  int            `gorm:"not null;default:0" json:"position"`
	Text      string         `gorm:"not null" json:"text"`
	Kind      string         `gorm:"not null;default:text" json:"kind"`
	Required  bool           `gorm:"not null;default:false" json:"required"`
	Options   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"options"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CustomQuestion) TableName() string {
	return "custom_questions"
}

type EmailTemplate struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID   snowflake.ID `gorm:"not null;index" json:"event_id"`
	Kind      string       `gorm:"not null" json:"kind"`
	Subject   string       `gorm:"not null" json:"subject"`
	Body      string       `gorm:"not null" json:"body"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

type EventAdmin struct {
	EventID   snowflake.ID `gorm:"primaryKey" json:"event_id"`
	UserID    snowflake.ID `gorm:"primaryKey" json:"user_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EventAdmin) TableName() string {
	return "event_admins"
}
