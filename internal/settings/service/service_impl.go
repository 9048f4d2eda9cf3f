package service

import (
	"context"

	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (domain.AccountSettings, error) {
	settings, err := s.repo.Find(ctx, s.db)
	if err != nil {
		return domain.AccountSettings{}, err
	}
	if settings == nil {
		return domain.Defaults(), nil
	}
	return *settings, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (domain.AccountSettings, error) {
	retention := req.RetentionYears
	if retention < domain.MinRetentionYears {
		s.log.Warn("retention below floor, clamping",
			zap.Int("requested", retention),
			zap.Int("floor", domain.MinRetentionYears),
		)
		retention = domain.MinRetentionYears
	}
	warning := req.WarningDays
	if warning < domain.MinWarningDays {
		s.log.Warn("warning window below floor, clamping",
			zap.Int("requested", warning),
			zap.Int("floor", domain.MinWarningDays),
		)
		warning = domain.MinWarningDays
	}

	settings := domain.AccountSettings{
		ID:             1,
		RetentionYears: retention,
		WarningDays:    warning,
		UpdatedAt:      s.clock.Now(),
	}
	if err := s.repo.Upsert(ctx, s.db, &settings); err != nil {
		return domain.AccountSettings{}, err
	}
	return settings, nil
}
