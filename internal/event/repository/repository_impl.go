package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/event/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const eventColumns = `id, slug, name, description, starts_at, ends_at,
	registration_opens_at, registration_closes_at, capacity, fee_amount, fee_currency,
	requires_institution, invitation_only, invitation_code, max_votes, published,
	created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO events (id, slug, name, description, starts_at, ends_at,
		 registration_opens_at, registration_closes_at, capacity, fee_amount, fee_currency,
		 requires_institution, invitation_only, invitation_code, max_votes, published,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Slug,
		event.Name,
		event.Description,
		event.StartsAt,
		event.EndsAt,
		event.RegistrationOpensAt,
		event.RegistrationClosesAt,
		event.Capacity,
		event.FeeAmount,
		event.FeeCurrency,
		event.RequiresInstitution,
		event.InvitationOnly,
		event.InvitationCode,
		event.MaxVotes,
		event.Published,
		event.CreatedAt,
		event.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Exec(
		`UPDATE events SET name = ?, description = ?, starts_at = ?, ends_at = ?,
		 registration_opens_at = ?, registration_closes_at = ?, capacity = ?, fee_amount = ?,
		 requires_institution = ?, invitation_only = ?, invitation_code = ?, max_votes = ?,
		 published = ?, updated_at = ?
		 WHERE id = ?`,
		event.Name,
		event.Description,
		event.StartsAt,
		event.EndsAt,
		event.RegistrationOpensAt,
		event.RegistrationClosesAt,
		event.Capacity,
		event.FeeAmount,
		event.RequiresInstitution,
		event.InvitationOnly,
		event.InvitationCode,
		event.MaxVotes,
		event.Published,
		event.UpdatedAt,
		event.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var event domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Event, error) {
	var event domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var event domain.Event
	tx := db.WithContext(ctx)
	// sqlite has no row locks; its single-writer model covers the tests.
	if name := db.Dialector.Name(); name == "postgres" || name == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.Where("id = ?", id).Take(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repo) ListPublished(ctx context.Context, db *gorm.DB, limit int) ([]*domain.Event, error) {
	var events []*domain.Event
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("published = ?", true).
		Order("starts_at desc, id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, limit int) ([]*domain.Event, error) {
	var events []*domain.Event
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Order("starts_at desc, id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) InsertQuestion(ctx context.Context, db *gorm.DB, question *domain.CustomQuestion) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO custom_questions (id, event_id, position, text, kind, required, options, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		question.ID,
		question.EventID,
		question.Position,
		question.Text,
		question.Kind,
		question.Required,
		question.Options,
		question.Active,
		question.CreatedAt,
		question.UpdatedAt,
	).Error
}

func (r *repo) UpdateQuestion(ctx context.Context, db *gorm.DB, question *domain.CustomQuestion) error {
	return db.WithContext(ctx).Exec(
		`UPDATE custom_questions SET position = ?, text = ?, kind = ?, required = ?, options = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		question.Position,
		question.Text,
		question.Kind,
		question.Required,
		question.Options,
		question.Active,
		question.UpdatedAt,
		question.ID,
	).Error
}

func (r *repo) FindQuestion(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomQuestion, error) {
	var question domain.CustomQuestion
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_id, position, text, kind, required, options, active, created_at, updated_at
		 FROM custom_questions WHERE id = ?`,
		id,
	).Scan(&question).Error
	if err != nil {
		return nil, err
	}
	if question.ID == 0 {
		return nil, nil
	}
	return &question, nil
}

func (r *repo) ListQuestions(ctx context.Context, db *gorm.DB, eventID snowflake.ID, activeOnly bool) ([]*domain.CustomQuestion, error) {
	var questions []*domain.CustomQuestion
	stmt := db.WithContext(ctx).
		Model(&domain.CustomQuestion{}).
		Where("event_id = ?", eventID)
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	err := stmt.
		Order("position asc, id asc").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *repo) UpsertTemplate(ctx context.Context, db *gorm.DB, template *domain.EmailTemplate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO email_templates (id, event_id, kind, subject, body, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_id, kind) DO UPDATE SET subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		template.ID,
		template.EventID,
		template.Kind,
		template.Subject,
		template.Body,
		template.UpdatedAt,
	).Error
}

func (r *repo) FindTemplate(ctx context.Context, db *gorm.DB, eventID snowflake.ID, kind string) (*domain.EmailTemplate, error) {
	var template domain.EmailTemplate
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_id, kind, subject, body, updated_at
		 FROM email_templates WHERE event_id = ? AND kind = ?`,
		eventID,
		kind,
	).Scan(&template).Error
	if err != nil {
		return nil, err
	}
	if template.ID == 0 {
		return nil, nil
	}
	return &template, nil
}

func (r *repo) InsertAdmin(ctx context.Context, db *gorm.DB, admin *domain.EventAdmin) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO event_admins (event_id, user_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		admin.EventID,
		admin.UserID,
		admin.CreatedAt,
	).Error
}

func (r *repo) DeleteAdmin(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM event_admins WHERE event_id = ? AND user_id = ?`,
		eventID,
		userID,
	).Error
}

func (r *repo) IsAdmin(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM event_admins WHERE event_id = ? AND user_id = ?`,
		eventID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListAdmins(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*domain.EventAdmin, error) {
	var admins []*domain.EventAdmin
	err := db.WithContext(ctx).
		Model(&domain.EventAdmin{}).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}
