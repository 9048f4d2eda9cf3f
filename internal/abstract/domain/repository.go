package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, abstract *Abstract) error
	Update(ctx context.Context, db *gorm.DB, abstract *Abstract) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Abstract, error)
	FindByEventAndUser(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) (*Abstract, error)
	ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*Abstract, error)

	InsertVote(ctx context.Context, db *gorm.DB, vote *AbstractVote) error
	DeleteVote(ctx context.Context, db *gorm.DB, abstractID, reviewerID snowflake.ID) error
	CountVotesByReviewer(ctx context.Context, db *gorm.DB, eventID, reviewerID snowflake.ID) (int64, error)
	CountVotes(ctx context.Context, db *gorm.DB, abstractID snowflake.ID) (int64, error)
}
