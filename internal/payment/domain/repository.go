package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertManualDetail(ctx context.Context, db *gorm.DB, detail *ManualTransactionDetail) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindCompletedByAttendee(ctx context.Context, db *gorm.DB, attendeeID snowflake.ID) (*Payment, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Payment, error)
	ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*Payment, error)
}
