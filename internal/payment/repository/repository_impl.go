package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const paymentColumns = `id, attendee_id, event_id, user_id, method, status, amount, currency,
	order_id, provider_payment_id, event_name, payer_email, payer_name,
	institute_name_ko, institute_name_en, completed_at, cancelled_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, attendee_id, event_id, user_id, method, status, amount, currency,
		 order_id, provider_payment_id, event_name, payer_email, payer_name,
		 institute_name_ko, institute_name_en, completed_at, cancelled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.AttendeeID,
		payment.EventID,
		payment.UserID,
		payment.Method,
		payment.Status,
		payment.Amount,
		payment.Currency,
		payment.OrderID,
		payment.ProviderPaymentID,
		payment.EventName,
		payment.PayerEmail,
		payment.PayerName,
		payment.InstituteNameKO,
		payment.InstituteNameEN,
		payment.CompletedAt,
		payment.CancelledAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, provider_payment_id = ?, completed_at = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		payment.Status,
		payment.ProviderPaymentID,
		payment.CompletedAt,
		payment.CancelledAt,
		payment.UpdatedAt,
		payment.ID,
	).Error
}

func (r *repo) InsertManualDetail(ctx context.Context, db *gorm.DB, detail *domain.ManualTransactionDetail) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO manual_transaction_details (payment_id, payer_name, transferred_at, note, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		detail.PaymentID,
		detail.PayerName,
		detail.TransferredAt,
		detail.Note,
		detail.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindCompletedByAttendee(ctx context.Context, db *gorm.DB, attendeeID snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE attendee_id = ? AND status = 'completed'`,
		attendeeID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("event_id = ?", eventID).
		Order("created_at desc, id desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
