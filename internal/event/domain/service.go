package domain

import (
	"context"
	"errors"
	"time"
)

type CreateEventRequest struct {
	Name                 string
	Description          string
	StartsAt             time.Time
	EndsAt               time.Time
	RegistrationOpensAt  time.Time
	RegistrationClosesAt time.Time
	Capacity             int
	FeeAmount            int64
	RequiresInstitution  bool
	InvitationOnly       bool
	InvitationCode       string
	MaxVotes             int
}

type UpdateEventRequest struct {
	ID                   string
	Name                 *string
	Description          *string
	StartsAt             *time.Time
	EndsAt               *time.Time
	RegistrationOpensAt  *time.Time
	RegistrationClosesAt *time.Time
	Capacity             *int
	FeeAmount            *int64
	RequiresInstitution  *bool
	InvitationOnly       *bool
	InvitationCode       *string
	MaxVotes             *int
}

type UpsertQuestionRequest struct {
	ID       string
	EventID  string
	Position int
	Text     string
	Kind     string
	Required bool
	Options  []string
	Active   *bool
}

type UpsertTemplateRequest struct {
	EventID string
	Kind    string
	Subject string
	Body    string
}

// RenderedTemplate is the subject/body pair a mail job is built from, either
// an event override row or the compiled-in default for the kind.
type RenderedTemplate struct {
	Kind    string
	Subject string
	Body    string
}

type Service interface {
	Create(context.Context, CreateEventRequest) (Event, error)
	Update(context.Context, UpdateEventRequest) (Event, error)
	SetPublished(ctx context.Context, id string, published bool) (Event, error)
	GetByID(context.Context, string) (Event, error)
	GetBySlug(context.Context, string) (Event, error)
	ListPublished(context.Context) ([]Event, error)
	ListAll(context.Context) ([]Event, error)

	UpsertQuestion(context.Context, UpsertQuestionRequest) (CustomQuestion, error)
	ListQuestions(ctx context.Context, eventID string, activeOnly bool) ([]CustomQuestion, error)

	UpsertTemplate(context.Context, UpsertTemplateRequest) (EmailTemplate, error)
	// ResolveTemplate returns the event override for kind, or the compiled-in
	// default when the event has none.
	ResolveTemplate(ctx context.Context, eventID, kind string) (RenderedTemplate, error)

	GrantAdmin(ctx context.Context, eventID, userID string) error
	RevokeAdmin(ctx context.Context, eventID, userID string) error
	IsEventStaff(ctx context.Context, eventID, userID string) (bool, error)
	ListAdmins(ctx context.Context, eventID string) ([]EventAdmin, error)
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidWindow       = errors.New("invalid_window")
	ErrInvalidQuestionKind = errors.New("invalid_question_kind")
	ErrInvalidTemplateKind = errors.New("invalid_template_kind")
	ErrNotFound            = errors.New("not_found")
)
