package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	institutiondomain "github.com/modoocon/modoocon/internal/institution/domain"
	"github.com/modoocon/modoocon/internal/mailer"
	"github.com/modoocon/modoocon/internal/observability/metrics"
	"github.com/modoocon/modoocon/internal/registration/domain"
	"github.com/modoocon/modoocon/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Metrics      *metrics.Metrics
	Repo         domain.Repository
	Events       eventdomain.Repository
	EventService eventdomain.Service
	Users        identitydomain.Service
	Institutions institutiondomain.Repository
	Mailer       mailer.Dispatcher
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	metrics      *metrics.Metrics
	repo         domain.Repository
	events       eventdomain.Repository
	eventService eventdomain.Service
	users        identitydomain.Service
	institutions institutiondomain.Repository
	mailer       mailer.Dispatcher
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("registration.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		metrics:      p.Metrics,
		repo:         p.Repo,
		events:       p.Events,
		eventService: p.EventService,
		users:        p.Users,
		institutions: p.Institutions,
		mailer:       p.Mailer,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.Registration, error) {
	eventID, err := s.parseID(req.EventID)
	if err != nil {
		return domain.Registration{}, err
	}
	userID, err := s.parseID(req.UserID)
	if err != nil {
		return domain.Registration{}, err
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		return domain.Registration{}, err
	}

	var (
		attendee  domain.Attendee
		answers   []domain.CustomAnswer
		eventName string
	)

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		event, err := s.events.LockByID(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event == nil || !event.Published {
			return domain.ErrNotFound
		}
		eventName = event.Name

		now := s.clock.Now()
		if now.Before(event.RegistrationOpensAt) || now.After(event.RegistrationClosesAt) {
			return domain.ErrDeadlinePassed
		}

		if event.InvitationOnly {
			submitted := strings.ToUpper(strings.TrimSpace(req.InvitationCode))
			if submitted == "" || submitted != event.InvitationCode {
				return domain.ErrInvalidInvitationCode
			}
		}

		if event.Capacity > 0 {
			count, err := s.repo.CountAttendees(ctx, tx, eventID)
			if err != nil {
				return err
			}
			if count >= int64(event.Capacity) {
				return domain.ErrEventFull
			}
		}

		existing, err := s.repo.FindAttendee(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyRegistered
		}

		questions, err := s.events.ListQuestions(ctx, tx, eventID, true)
		if err != nil {
			return err
		}
		rendered, err := renderAnswers(questions, req.Answers)
		if err != nil {
			return err
		}

		var instituteKO, instituteEN string
		if event.RequiresInstitution {
			rawInstitutionID := strings.TrimSpace(req.InstitutionID)
			if rawInstitutionID == "" {
				return domain.ErrMissingInstitute
			}
			institutionID, err := snowflake.ParseString(rawInstitutionID)
			if err != nil || institutionID == 0 {
				return domain.ErrInvalidInstitution
			}
			institution, err := s.institutions.FindByID(ctx, tx, institutionID)
			if err != nil {
				return err
			}
			if institution == nil {
				return domain.ErrInvalidInstitution
			}
			instituteKO = institution.NameKO
			instituteEN = institution.NameEN
		}

		attendee = domain.Attendee{
			ID:              s.genID.Generate(),
			EventID:         eventID,
			UserID:          &userID,
			InstituteNameKO: instituteKO,
			InstituteNameEN: instituteEN,
			OrderID:         newOrderID(now),
			RegisteredAt:    now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.InsertAttendee(ctx, tx, &attendee); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyRegistered
			}
			return err
		}

		answers = make([]domain.CustomAnswer, 0, len(rendered))
		for _, ra := range rendered {
			answer := domain.CustomAnswer{
				ID:           s.genID.Generate(),
				AttendeeID:   attendee.ID,
				QuestionID:   ra.questionID,
				QuestionText: ra.questionText,
				Answer:       ra.answer,
				CreatedAt:    now,
			}
			if err := s.repo.InsertAnswer(ctx, tx, &answer); err != nil {
				return err
			}
			answers = append(answers, answer)
		}
		return nil
	})
	if txErr != nil {
		s.metrics.RecordRegistration(ctx, outcomeOf(txErr))
		return domain.Registration{}, txErr
	}

	s.metrics.RecordRegistration(ctx, "confirmed")
	s.enqueueConfirmation(ctx, user, eventID, eventName, attendee.OrderID)

	return domain.Registration{Attendee: attendee, Answers: answers}, nil
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelRequest) error {
	eventID, err := s.parseID(req.EventID)
	if err != nil {
		return err
	}
	userID, err := s.parseID(req.UserID)
	if err != nil {
		return err
	}

	attendee, err := s.repo.FindAttendee(ctx, s.db, eventID, userID)
	if err != nil {
		return err
	}
	if attendee == nil {
		return domain.ErrNotFound
	}

	paid, err := s.repo.HasCompletedPayment(ctx, s.db, attendee.ID)
	if err != nil {
		return err
	}
	if paid {
		return domain.ErrPaymentRequired
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteAttendee(ctx, tx, attendee.ID)
	})
}

func (s *Service) MyRegistrations(ctx context.Context, rawUserID string) ([]domain.Registration, error) {
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.withAnswers(ctx, attendees)
}

func (s *Service) Roster(ctx context.Context, rawEventID string) ([]domain.Registration, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.repo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	return s.withAnswers(ctx, attendees)
}

func (s *Service) GetAttendee(ctx context.Context, rawID string) (domain.Attendee, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Attendee{}, err
	}

	attendee, err := s.repo.FindAttendeeByID(ctx, s.db, id)
	if err != nil {
		return domain.Attendee{}, err
	}
	if attendee == nil {
		return domain.Attendee{}, domain.ErrNotFound
	}
	return *attendee, nil
}

func (s *Service) FindAttendee(ctx context.Context, rawEventID, rawUserID string) (domain.Attendee, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return domain.Attendee{}, err
	}
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return domain.Attendee{}, err
	}

	attendee, err := s.repo.FindAttendee(ctx, s.db, eventID, userID)
	if err != nil {
		return domain.Attendee{}, err
	}
	if attendee == nil {
		return domain.Attendee{}, domain.ErrNotFound
	}
	return *attendee, nil
}

func (s *Service) withAnswers(ctx context.Context, attendees []*domain.Attendee) ([]domain.Registration, error) {
	registrations := make([]domain.Registration, 0, len(attendees))
	for _, attendee := range attendees {
		if attendee == nil {
			continue
		}
		items, err := s.repo.ListAnswers(ctx, s.db, attendee.ID)
		if err != nil {
			return nil, err
		}
		answers := make([]domain.CustomAnswer, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			answers = append(answers, *item)
		}
		registrations = append(registrations, domain.Registration{Attendee: *attendee, Answers: answers})
	}
	return registrations, nil
}

func (s *Service) enqueueConfirmation(ctx context.Context, user identitydomain.User, eventID snowflake.ID, eventName, orderID string) {
	tmpl, err := s.eventService.ResolveTemplate(ctx, eventID.String(), eventdomain.TemplateRegistrationConfirmed)
	if err != nil {
		s.log.Warn("resolve confirmation template failed", zap.Error(err))
		return
	}

	vars := map[string]string{
		"event_name": eventName,
		"user_name":  user.Name,
		"order_id":   orderID,
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: mailer.Render(tmpl.Subject, vars),
		Body:    mailer.Render(tmpl.Body, vars),
		Kind:    tmpl.Kind,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("enqueue confirmation email failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "confirmed"
	}
	for _, guard := range []error{
		domain.ErrNotFound,
		domain.ErrDeadlinePassed,
		domain.ErrInvalidInvitationCode,
		domain.ErrEventFull,
		domain.ErrAlreadyRegistered,
		domain.ErrMissingInstitute,
		domain.ErrInvalidInstitution,
	} {
		if errors.Is(err, guard) {
			return guard.Error()
		}
	}
	var missing *domain.MissingAnswerError
	if errors.As(err, &missing) {
		return "missing_answer"
	}
	return "error"
}
