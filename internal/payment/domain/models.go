package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MethodCard   = "card"
	MethodPayPal = "paypal"
	MethodManual = "manual"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment is one ledger row. Snapshot columns are filled at write time so
// the row stays meaningful after the attendee or user is gone.
type Payment struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	AttendeeID        *snowflake.ID `gorm:"column:attendee_id" json:"attendee_id,omitempty"`
	EventID           snowflake.ID  `gorm:"not null;index" json:"event_id"`
	UserID            *snowflake.ID `gorm:"column:user_id" json:"user_id,omitempty"`
	Method            string        `gorm:"not null" json:"method"`
	Status            string        `gorm:"not null" json:"status"`
	Amount            int64         `gorm:"not null" json:"amount"`
	Currency          string        `gorm:"not null;default:KRW" json:"currency"`
	OrderID           string        `gorm:"not null" json:"order_id"`
	ProviderPaymentID string        `gorm:"not null" json:"provider_payment_id,omitempty"`
	EventName         string        `gorm:"not null" json:"event_name"`
	PayerEmail        string        `gorm:"not null" json:"payer_email"`
	PayerName         string        `gorm:"not null" json:"payer_name"`
	InstituteNameKO   string        `gorm:"column:institute_name_ko;not null" json:"institute_name_ko"`
	InstituteNameEN   string        `gorm:"column:institute_name_en;not null" json:"institute_name_en"`
	CompletedAt       *time.Time    `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CancelledAt       *time.Time    `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// ManualTransactionDetail is the 1:1 child of a staff-recorded payment.
type ManualTransactionDetail struct {
	PaymentID     snowflake.ID `gorm:"primaryKey" json:"payment_id"`
	PayerName     string       `gorm:"not null" json:"payer_name"`
	TransferredAt time.Time    `gorm:"not null" json:"transferred_at"`
	Note          string       `gorm:"not null" json:"note"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ManualTransactionDetail) TableName() string {
	return "manual_transaction_details"
}
