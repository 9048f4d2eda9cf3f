package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, email, name, locale, is_staff, institution_id, last_login_at, deletion_warning_sent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.Locale,
		user.IsStaff,
		user.InstitutionID,
		user.LastLoginAt,
		user.DeletionWarningSent,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET name = ?, locale = ?, institution_id = ?, updated_at = ? WHERE id = ?`,
		user.Name,
		user.Locale,
		user.InstitutionID,
		user.UpdatedAt,
		user.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, locale, is_staff, institution_id, last_login_at, deletion_warning_sent, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, locale, is_staff, institution_id, last_login_at, deletion_warning_sent, created_at, updated_at
		 FROM users WHERE LOWER(email) = LOWER(?)`,
		strings.TrimSpace(email),
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) TouchLogin(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET last_login_at = ?, deletion_warning_sent = FALSE, updated_at = ? WHERE id = ?`,
		at,
		at,
		id,
	).Error
}
