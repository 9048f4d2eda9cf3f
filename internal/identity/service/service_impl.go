package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/identity/domain"
	institutiondomain "github.com/modoocon/modoocon/internal/institution/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const touchLoginInterval = time.Hour

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Institutions institutiondomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	institutions institutiondomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("identity.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		institutions: p.Institutions,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrInvalidEmail
	}

	locale, err := normalizeLocale(req.Locale)
	if err != nil {
		return domain.User{}, err
	}

	institutionID, err := s.resolveInstitution(ctx, req.InstitutionID)
	if err != nil {
		return domain.User{}, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:            s.genID.Generate(),
		Email:         email,
		Name:          strings.TrimSpace(req.Name),
		Locale:        locale,
		InstitutionID: institutionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.User, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, domain.ErrInvalidEmail
	}

	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error) {
	id, err := s.parseID(req.UserID)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Locale != "" {
		locale, err := normalizeLocale(req.Locale)
		if err != nil {
			return domain.User{}, err
		}
		user.Locale = locale
	}
	if req.InstitutionID != "" {
		institutionID, err := s.resolveInstitution(ctx, req.InstitutionID)
		if err != nil {
			return domain.User{}, err
		}
		user.InstitutionID = institutionID
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, user); err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (s *Service) TouchLogin(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrNotFound
	}

	now := s.clock.Now()
	if !user.DeletionWarningSent && user.LastLoginAt != nil && now.Sub(*user.LastLoginAt) < touchLoginInterval {
		return nil
	}
	return s.repo.TouchLogin(ctx, s.db, id, now)
}

func (s *Service) resolveInstitution(ctx context.Context, rawID string) (*snowflake.ID, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, nil
	}
	institution, err := s.institutions.GetByID(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return &institution.ID, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeLocale(value string) (string, error) {
	locale := strings.ToLower(strings.TrimSpace(value))
	if locale == "" {
		return "ko", nil
	}
	if locale != "ko" && locale != "en" {
		return "", domain.ErrInvalidLocale
	}
	return locale, nil
}
