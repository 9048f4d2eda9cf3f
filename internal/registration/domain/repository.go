package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertAttendee(ctx context.Context, db *gorm.DB, attendee *Attendee) error
	InsertAnswer(ctx context.Context, db *gorm.DB, answer *CustomAnswer) error
	FindAttendeeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Attendee, error)
	FindAttendee(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) (*Attendee, error)
	CountAttendees(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error)
	DeleteAttendee(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Attendee, error)
	ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*Attendee, error)
	ListAnswers(ctx context.Context, db *gorm.DB, attendeeID snowflake.ID) ([]*CustomAnswer, error)
	// HasCompletedPayment reports whether a completed payment row exists for
	// the attendee. Queried directly so cancellation does not depend on the
	// payment service.
	HasCompletedPayment(ctx context.Context, db *gorm.DB, attendeeID snowflake.ID) (bool, error)
}
