package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/registration/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const attendeeColumns = `id, event_id, user_id, institute_name_ko, institute_name_en,
	order_id, registered_at, user_deleted_at, user_email, created_at, updated_at`

func (r *repo) InsertAttendee(ctx context.Context, db *gorm.DB, attendee *domain.Attendee) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO attendees (id, event_id, user_id, institute_name_ko, institute_name_en,
		 order_id, registered_at, user_deleted_at, user_email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attendee.ID,
		attendee.EventID,
		attendee.UserID,
		attendee.InstituteNameKO,
		attendee.InstituteNameEN,
		attendee.OrderID,
		attendee.RegisteredAt,
		attendee.UserDeletedAt,
		attendee.UserEmail,
		attendee.CreatedAt,
		attendee.UpdatedAt,
	).Error
}

func (r *repo) InsertAnswer(ctx context.Context, db *gorm.DB, answer *domain.CustomAnswer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO custom_answers (id, attendee_id, question_id, question_text, answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		answer.ID,
		answer.AttendeeID,
		answer.QuestionID,
		answer.QuestionText,
		answer.Answer,
		answer.CreatedAt,
	).Error
}

func (r *repo) FindAttendeeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Attendee, error) {
	var attendee domain.Attendee
	err := db.WithContext(ctx).Raw(
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = ?`, id,
	).Scan(&attendee).Error
	if err != nil {
		return nil, err
	}
	if attendee.ID == 0 {
		return nil, nil
	}
	return &attendee, nil
}

func (r *repo) FindAttendee(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) (*domain.Attendee, error) {
	var attendee domain.Attendee
	err := db.WithContext(ctx).Raw(
		`SELECT `+attendeeColumns+` FROM attendees WHERE event_id = ? AND user_id = ?`,
		eventID,
		userID,
	).Scan(&attendee).Error
	if err != nil {
		return nil, err
	}
	if attendee.ID == 0 {
		return nil, nil
	}
	return &attendee, nil
}

func (r *repo) CountAttendees(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM attendees WHERE event_id = ?`, eventID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) DeleteAttendee(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM custom_answers WHERE attendee_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM attendees WHERE id = ?`, id,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*domain.Attendee, error) {
	var attendees []*domain.Attendee
	err := db.WithContext(ctx).
		Model(&domain.Attendee{}).
		Where("user_id = ?", userID).
		Order("registered_at desc, id desc").
		Find(&attendees).Error
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

func (r *repo) ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*domain.Attendee, error) {
	var attendees []*domain.Attendee
	err := db.WithContext(ctx).
		Model(&domain.Attendee{}).
		Where("event_id = ?", eventID).
		Order("registered_at asc, id asc").
		Find(&attendees).Error
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

func (r *repo) ListAnswers(ctx context.Context, db *gorm.DB, attendeeID snowflake.ID) ([]*domain.CustomAnswer, error) {
	var answers []*domain.CustomAnswer
	err := db.WithContext(ctx).
		Model(&domain.CustomAnswer{}).
		Where("attendee_id = ?", attendeeID).
		Order("id asc").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *repo) HasCompletedPayment(ctx context.Context, db *gorm.DB, attendeeID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM payments WHERE attendee_id = ? AND status = 'completed'`,
		attendeeID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
