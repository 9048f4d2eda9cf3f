package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	Update(ctx context.Context, db *gorm.DB, event *Event) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Event, error)
	// LockByID reads the event row FOR UPDATE. Callers must be inside a
	// transaction; the lock serializes capacity checks.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	ListPublished(ctx context.Context, db *gorm.DB, limit int) ([]*Event, error)
	ListAll(ctx context.Context, db *gorm.DB, limit int) ([]*Event, error)

	InsertQuestion(ctx context.Context, db *gorm.DB, question *CustomQuestion) error
	UpdateQuestion(ctx context.Context, db *gorm.DB, question *CustomQuestion) error
	FindQuestion(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CustomQuestion, error)
	ListQuestions(ctx context.Context, db *gorm.DB, eventID snowflake.ID, activeOnly bool) ([]*CustomQuestion, error)

	UpsertTemplate(ctx context.Context, db *gorm.DB, template *EmailTemplate) error
	FindTemplate(ctx context.Context, db *gorm.DB, eventID snowflake.ID, kind string) (*EmailTemplate, error)

	InsertAdmin(ctx context.Context, db *gorm.DB, admin *EventAdmin) error
	DeleteAdmin(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) error
	IsAdmin(ctx context.Context, db *gorm.DB, eventID, userID snowflake.ID) (bool, error)
	ListAdmins(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*EventAdmin, error)
}
