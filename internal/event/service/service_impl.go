package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/event/domain"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const listLimit = 200

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Users identitydomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	users identitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("event.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		users: p.Users,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateEventRequest) (domain.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Event{}, domain.ErrInvalidName
	}
	if !req.EndsAt.After(req.StartsAt) || !req.RegistrationClosesAt.After(req.RegistrationOpensAt) {
		return domain.Event{}, domain.ErrInvalidWindow
	}

	now := s.clock.Now()
	event := domain.Event{
		ID:                   s.genID.Generate(),
		Slug:                 slug.Make(name),
		Name:                 name,
		Description:          strings.TrimSpace(req.Description),
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		RegistrationOpensAt:  req.RegistrationOpensAt,
		RegistrationClosesAt: req.RegistrationClosesAt,
		Capacity:             max(req.Capacity, 0),
		FeeAmount:            max(req.FeeAmount, 0),
		FeeCurrency:          "KRW",
		RequiresInstitution:  req.RequiresInstitution,
		InvitationOnly:       req.InvitationOnly,
		InvitationCode:       strings.ToUpper(strings.TrimSpace(req.InvitationCode)),
		MaxVotes:             max(req.MaxVotes, 0),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateEventRequest) (domain.Event, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Event{}, err
	}

	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Event{}, err
	}
	if event == nil {
		return domain.Event{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Event{}, domain.ErrInvalidName
		}
		event.Name = name
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = *req.EndsAt
	}
	if req.RegistrationOpensAt != nil {
		event.RegistrationOpensAt = *req.RegistrationOpensAt
	}
	if req.RegistrationClosesAt != nil {
		event.RegistrationClosesAt = *req.RegistrationClosesAt
	}
	if req.Capacity != nil {
		event.Capacity = max(*req.Capacity, 0)
	}
	if req.FeeAmount != nil {
		event.FeeAmount = max(*req.FeeAmount, 0)
	}
	if req.RequiresInstitution != nil {
		event.RequiresInstitution = *req.RequiresInstitution
	}
	if req.InvitationOnly != nil {
		event.InvitationOnly = *req.InvitationOnly
	}
	if req.InvitationCode != nil {
		event.InvitationCode = strings.ToUpper(strings.TrimSpace(*req.InvitationCode))
	}
	if req.MaxVotes != nil {
		event.MaxVotes = max(*req.MaxVotes, 0)
	}
	if !event.EndsAt.After(event.StartsAt) || !event.RegistrationClosesAt.After(event.RegistrationOpensAt) {
		return domain.Event{}, domain.ErrInvalidWindow
	}
	event.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, event); err != nil {
		return domain.Event{}, err
	}
	return *event, nil
}

func (s *Service) SetPublished(ctx context.Context, rawID string, published bool) (domain.Event, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Event{}, err
	}

	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Event{}, err
	}
	if event == nil {
		return domain.Event{}, domain.ErrNotFound
	}

	event.Published = published
	event.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, event); err != nil {
		return domain.Event{}, err
	}
	return *event, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Event, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Event{}, err
	}

	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Event{}, err
	}
	if event == nil {
		return domain.Event{}, domain.ErrNotFound
	}
	return *event, nil
}

func (s *Service) GetBySlug(ctx context.Context, raw string) (domain.Event, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Event{}, domain.ErrNotFound
	}

	event, err := s.repo.FindBySlug(ctx, s.db, raw)
	if err != nil {
		return domain.Event{}, err
	}
	if event == nil {
		return domain.Event{}, domain.ErrNotFound
	}
	return *event, nil
}

func (s *Service) ListPublished(ctx context.Context) ([]domain.Event, error) {
	items, err := s.repo.ListPublished(ctx, s.db, listLimit)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Event, error) {
	items, err := s.repo.ListAll(ctx, s.db, listLimit)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) UpsertQuestion(ctx context.Context, req domain.UpsertQuestionRequest) (domain.CustomQuestion, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.CustomQuestion{}, domain.ErrInvalidName
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = domain.QuestionKindText
	}
	if kind != domain.QuestionKindText && kind != domain.QuestionKindCheckbox {
		return domain.CustomQuestion{}, domain.ErrInvalidQuestionKind
	}

	options := datatypes.JSON([]byte("[]"))
	if len(req.Options) > 0 {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return domain.CustomQuestion{}, err
		}
		options = datatypes.JSON(raw)
	}

	now := s.clock.Now()

	if strings.TrimSpace(req.ID) != "" {
		id, err := s.parseID(req.ID)
		if err != nil {
			return domain.CustomQuestion{}, err
		}
		question, err := s.repo.FindQuestion(ctx, s.db, id)
		if err != nil {
			return domain.CustomQuestion{}, err
		}
		if question == nil {
			return domain.CustomQuestion{}, domain.ErrNotFound
		}
		question.Position = req.Position
		question.Text = text
		question.Kind = kind
		question.Required = req.Required
		question.Options = options
		if req.Active != nil {
			question.Active = *req.Active
		}
		question.UpdatedAt = now
		if err := s.repo.UpdateQuestion(ctx, s.db, question); err != nil {
			return domain.CustomQuestion{}, err
		}
		return *question, nil
	}

	eventID, err := s.parseID(req.EventID)
	if err != nil {
		return domain.CustomQuestion{}, err
	}
	if event, err := s.repo.FindByID(ctx, s.db, eventID); err != nil {
		return domain.CustomQuestion{}, err
	} else if event == nil {
		return domain.CustomQuestion{}, domain.ErrNotFound
	}

	question := domain.CustomQuestion{
		ID:        s.genID.Generate(),
		EventID:   eventID,
		Position:  req.Position,
		Text:      text,
		Kind:      kind,
		Required:  req.Required,
		Options:   options,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertQuestion(ctx, s.db, &question); err != nil {
		return domain.CustomQuestion{}, err
	}
	return question, nil
}

func (s *Service) ListQuestions(ctx context.Context, rawEventID string, activeOnly bool) ([]domain.CustomQuestion, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListQuestions(ctx, s.db, eventID, activeOnly)
	if err != nil {
		return nil, err
	}

	questions := make([]domain.CustomQuestion, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		questions = append(questions, *item)
	}
	return questions, nil
}

func (s *Service) UpsertTemplate(ctx context.Context, req domain.UpsertTemplateRequest) (domain.EmailTemplate, error) {
	eventID, err := s.parseID(req.EventID)
	if err != nil {
		return domain.EmailTemplate{}, err
	}
	if !isTemplateKind(req.Kind) {
		return domain.EmailTemplate{}, domain.ErrInvalidTemplateKind
	}
	if event, err := s.repo.FindByID(ctx, s.db, eventID); err != nil {
		return domain.EmailTemplate{}, err
	} else if event == nil {
		return domain.EmailTemplate{}, domain.ErrNotFound
	}

	template := domain.EmailTemplate{
		ID:        s.genID.Generate(),
		EventID:   eventID,
		Kind:      req.Kind,
		Subject:   strings.TrimSpace(req.Subject),
		Body:      req.Body,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.UpsertTemplate(ctx, s.db, &template); err != nil {
		return domain.EmailTemplate{}, err
	}
	return template, nil
}

func (s *Service) ResolveTemplate(ctx context.Context, rawEventID, kind string) (domain.RenderedTemplate, error) {
	fallback, ok := defaultTemplates[kind]
	if !ok {
		return domain.RenderedTemplate{}, domain.ErrInvalidTemplateKind
	}

	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return domain.RenderedTemplate{}, err
	}

	override, err := s.repo.FindTemplate(ctx, s.db, eventID, kind)
	if err != nil {
		return domain.RenderedTemplate{}, err
	}
	if override == nil {
		return fallback, nil
	}
	return domain.RenderedTemplate{
		Kind:    kind,
		Subject: override.Subject,
		Body:    override.Body,
	}, nil
}

func (s *Service) GrantAdmin(ctx context.Context, rawEventID, rawUserID string) error {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return err
	}
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return err
	}
	if event, err := s.repo.FindByID(ctx, s.db, eventID); err != nil {
		return err
	} else if event == nil {
		return domain.ErrNotFound
	}
	if _, err := s.users.GetByID(ctx, userID.String()); err != nil {
		return err
	}

	return s.repo.InsertAdmin(ctx, s.db, &domain.EventAdmin{
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: s.clock.Now(),
	})
}

func (s *Service) RevokeAdmin(ctx context.Context, rawEventID, rawUserID string) error {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return err
	}
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return err
	}
	return s.repo.DeleteAdmin(ctx, s.db, eventID, userID)
}

func (s *Service) IsEventStaff(ctx context.Context, rawEventID, rawUserID string) (bool, error) {
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return false, err
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		return false, err
	}
	if user.IsStaff {
		return true, nil
	}

	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return false, err
	}
	return s.repo.IsAdmin(ctx, s.db, eventID, userID)
}

func (s *Service) ListAdmins(ctx context.Context, rawEventID string) ([]domain.EventAdmin, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListAdmins(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}

	admins := make([]domain.EventAdmin, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		admins = append(admins, *item)
	}
	return admins, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func deref(items []*domain.Event) []domain.Event {
	events := make([]domain.Event, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		events = append(events, *item)
	}
	return events
}
