package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/abstract/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const abstractColumns = `id, event_id, user_id, title, body, status, submitted_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, abstract *domain.Abstract) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO abstracts (id, event_id, user_id, title, body, status, submitted_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		abstract.ID,
		abstract.EventID,
		abstract.UserID,
		abstract.Title,
		abstract.Body,
		abstract.Status,
		abstract.SubmittedAt,
		abstract.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, abstract *domain.Abstract) error {
	return db.WithContext(ctx).Exec(
		`UPDATE abstracts SET title = ?, body = ?, status = ?, updated_at = ? WHERE id = ?`,
		abstract.Title,
		abstract.Body,
		abstract.Status,
		abstract.UpdatedAt,
		abstract.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM abstract_votes WHERE abstract_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM abstracts WHERE id = ?`, id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Abstract, error) {
	var abstract domain.Abstract
	err := db.WithContext(ctx).Raw(
		`SELECT `+abstractColumns+` FROM abstracts WHERE id = ?`, id,
	).Scan(&abstract).Error
	if err != nil {
		return nil, err
	}
	if abstract.ID == 0 {
		return nil, nil
	}
	return &abstract, nil
}

func (r *repo) FindByEventAndUser(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) (*domain.Abstract, error) {
	var abstract domain.Abstract
	err := db.WithContext(ctx).Raw(
		`SELECT `+abstractColumns+` FROM abstracts WHERE event_id = ? AND user_id = ?`,
		eventID,
		userID,
	).Scan(&abstract).Error
	if err != nil {
		return nil, err
	}
	if abstract.ID == 0 {
		return nil, nil
	}
	return &abstract, nil
}

func (r *repo) ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*domain.Abstract, error) {
	var abstracts []*domain.Abstract
	err := db.WithContext(ctx).
		Model(&domain.Abstract{}).
		Where("event_id = ?", eventID).
		Order("submitted_at asc, id asc").
		Find(&abstracts).Error
	if err != nil {
		return nil, err
	}
	return abstracts, nil
}

func (r *repo) InsertVote(ctx context.Context, db *gorm.DB, vote *domain.AbstractVote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO abstract_votes (abstract_id, reviewer_id, created_at) VALUES (?, ?, ?)`,
		vote.AbstractID,
		vote.ReviewerID,
		vote.CreatedAt,
	).Error
}

func (r *repo) DeleteVote(ctx context.Context, db *gorm.DB, abstractID, reviewerID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM abstract_votes WHERE abstract_id = ? AND reviewer_id = ?`,
		abstractID,
		reviewerID,
	).Error
}

func (r *repo) CountVotesByReviewer(ctx context.Context, db *gorm.DB, eventID, reviewerID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM abstract_votes v
		 JOIN abstracts a ON a.id = v.abstract_id
		 WHERE a.event_id = ? AND v.reviewer_id = ?`,
		eventID,
		reviewerID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) CountVotes(ctx context.Context, db *gorm.DB, abstractID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM abstract_votes WHERE abstract_id = ?`, abstractID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
