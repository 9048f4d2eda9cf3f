package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/institution/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, institution *domain.Institution) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO institutions (id, name_ko, name_en, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		institution.ID,
		institution.NameKO,
		institution.NameEN,
		institution.CreatedAt,
		institution.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, institution *domain.Institution) error {
	return db.WithContext(ctx).Exec(
		`UPDATE institutions SET name_ko = ?, name_en = ?, updated_at = ? WHERE id = ?`,
		institution.NameKO,
		institution.NameEN,
		institution.UpdatedAt,
		institution.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Institution, error) {
	var institution domain.Institution
	err := db.WithContext(ctx).Raw(
		`SELECT id, name_ko, name_en, created_at, updated_at
		 FROM institutions WHERE id = ?`,
		id,
	).Scan(&institution).Error
	if err != nil {
		return nil, err
	}
	if institution.ID == 0 {
		return nil, nil
	}
	return &institution, nil
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, prefix string, limit int) ([]*domain.Institution, error) {
	var institutions []*domain.Institution
	stmt := db.WithContext(ctx).Model(&domain.Institution{})
	if prefix != "" {
		pattern := strings.ReplaceAll(strings.ReplaceAll(prefix, "%", `\%`), "_", `\_`) + "%"
		stmt = stmt.Where("LOWER(name_ko) LIKE LOWER(?) OR LOWER(name_en) LIKE LOWER(?)", pattern, pattern)
	}
	err := stmt.
		Order("name_en asc, id asc").
		Limit(limit).
		Find(&institutions).Error
	if err != nil {
		return nil, err
	}
	return institutions, nil
}
