package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, institution *Institution) error
	Update(ctx context.Context, db *gorm.DB, institution *Institution) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Institution, error)
	Search(ctx context.Context, db *gorm.DB, prefix string, limit int) ([]*Institution, error)
}
