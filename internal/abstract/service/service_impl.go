package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/abstract/domain"
	"github.com/modoocon/modoocon/internal/clock"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	"github.com/modoocon/modoocon/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Events eventdomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	events eventdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("abstract.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		events: p.Events,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Abstract, error) {
	eventID, err := s.parseID(req.EventID)
	if err != nil {
		return domain.Abstract{}, err
	}
	userID, err := s.parseID(req.UserID)
	if err != nil {
		return domain.Abstract{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Abstract{}, domain.ErrInvalidTitle
	}

	event, err := s.events.FindByID(ctx, s.db, eventID)
	if err != nil {
		return domain.Abstract{}, err
	}
	if event == nil || !event.Published {
		return domain.Abstract{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	if now.Before(event.RegistrationOpensAt) || now.After(event.RegistrationClosesAt) {
		return domain.Abstract{}, domain.ErrDeadlinePassed
	}

	existing, err := s.repo.FindByEventAndUser(ctx, s.db, eventID, userID)
	if err != nil {
		return domain.Abstract{}, err
	}
	if existing != nil {
		return domain.Abstract{}, domain.ErrAlreadySubmitted
	}

	abstract := domain.Abstract{
		ID:          s.genID.Generate(),
		EventID:     eventID,
		UserID:      userID,
		Title:       title,
		Body:        strings.TrimSpace(req.Body),
		Status:      domain.StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &abstract); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Abstract{}, domain.ErrAlreadySubmitted
		}
		return domain.Abstract{}, err
	}
	return abstract, nil
}

func (s *Service) Withdraw(ctx context.Context, rawAbstractID, rawUserID string) error {
	abstractID, err := s.parseID(rawAbstractID)
	if err != nil {
		return err
	}
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return err
	}

	abstract, err := s.repo.FindByID(ctx, s.db, abstractID)
	if err != nil {
		return err
	}
	if abstract == nil || abstract.UserID != userID {
		return domain.ErrNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, abstractID)
	})
}

func (s *Service) Decide(ctx context.Context, req domain.DecideRequest) (domain.Abstract, error) {
	abstractID, err := s.parseID(req.AbstractID)
	if err != nil {
		return domain.Abstract{}, err
	}
	if req.Status != domain.StatusAccepted && req.Status != domain.StatusRejected {
		return domain.Abstract{}, domain.ErrInvalidStatus
	}

	abstract, err := s.repo.FindByID(ctx, s.db, abstractID)
	if err != nil {
		return domain.Abstract{}, err
	}
	if abstract == nil {
		return domain.Abstract{}, domain.ErrNotFound
	}

	abstract.Status = req.Status
	abstract.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, abstract); err != nil {
		return domain.Abstract{}, err
	}
	return *abstract, nil
}

func (s *Service) Vote(ctx context.Context, req domain.VoteRequest) error {
	abstractID, err := s.parseID(req.AbstractID)
	if err != nil {
		return err
	}
	reviewerID, err := s.parseID(req.ReviewerID)
	if err != nil {
		return err
	}

	abstract, err := s.repo.FindByID(ctx, s.db, abstractID)
	if err != nil {
		return err
	}
	if abstract == nil {
		return domain.ErrNotFound
	}

	event, err := s.events.FindByID(ctx, s.db, abstract.EventID)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.ErrNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if event.MaxVotes > 0 {
			spent, err := s.repo.CountVotesByReviewer(ctx, tx, abstract.EventID, reviewerID)
			if err != nil {
				return err
			}
			if spent >= int64(event.MaxVotes) {
				return domain.ErrVoteBudgetSpent
			}
		}

		vote := domain.AbstractVote{
			AbstractID: abstractID,
			ReviewerID: reviewerID,
			CreatedAt:  s.clock.Now(),
		}
		if err := s.repo.InsertVote(ctx, tx, &vote); err != nil {
			// Voting twice on the same abstract is a no-op.
			if db.IsDuplicateKeyErr(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (s *Service) Unvote(ctx context.Context, req domain.VoteRequest) error {
	abstractID, err := s.parseID(req.AbstractID)
	if err != nil {
		return err
	}
	reviewerID, err := s.parseID(req.ReviewerID)
	if err != nil {
		return err
	}
	return s.repo.DeleteVote(ctx, s.db, abstractID, reviewerID)
}

func (s *Service) Tally(ctx context.Context, rawEventID string) ([]domain.TallyItem, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return nil, err
	}

	abstracts, err := s.repo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.TallyItem, 0, len(abstracts))
	for _, abstract := range abstracts {
		if abstract == nil {
			continue
		}
		votes, err := s.repo.CountVotes(ctx, s.db, abstract.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.TallyItem{Abstract: *abstract, Votes: votes})
	}
	return items, nil
}

func (s *Service) MyAbstract(ctx context.Context, rawEventID, rawUserID string) (domain.Abstract, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return domain.Abstract{}, err
	}
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return domain.Abstract{}, err
	}

	abstract, err := s.repo.FindByEventAndUser(ctx, s.db, eventID, userID)
	if err != nil {
		return domain.Abstract{}, err
	}
	if abstract == nil {
		return domain.Abstract{}, domain.ErrNotFound
	}
	return *abstract, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
