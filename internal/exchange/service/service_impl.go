package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/exchange/domain"
	"github.com/modoocon/modoocon/internal/observability/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Metrics  *metrics.Metrics
	Repo     domain.Repository
	Provider domain.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	ttl      time.Duration
	metrics  *metrics.Metrics
	repo     domain.Repository
	provider domain.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("exchange.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		ttl:      p.Config.Exchange.TTL,
		metrics:  p.Metrics,
		repo:     p.Repo,
		provider: p.Provider,
	}
}

func (s *Service) KRWToUSD(ctx context.Context, amountKRW int64) (decimal.Decimal, error) {
	rate, err := s.currentRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	// rate is KRW per USD; invert to convert KRW to USD.
	return decimal.NewFromInt(amountKRW).Div(rate), nil
}

func (s *Service) currentRate(ctx context.Context) (decimal.Decimal, error) {
	cached, err := s.repo.FindByPair(ctx, s.db, domain.PairUSDKRW)
	if err != nil {
		return decimal.Zero, err
	}

	now := s.clock.Now()
	if cached != nil && now.Sub(cached.FetchedAt) < s.ttl {
		return cached.Rate, nil
	}

	fresh, fetchErr := s.provider.FetchUSDKRW(ctx)
	if fetchErr != nil {
		if cached != nil {
			// Stale is better than failing a payment flow over a quote
			// that moves slowly anyway.
			s.metrics.RecordRateRefresh(ctx, "stale")
			s.log.Warn("exchange rate refresh failed, serving stale rate",
				zap.Time("fetched_at", cached.FetchedAt),
				zap.Error(fetchErr),
			)
			return cached.Rate, nil
		}
		s.metrics.RecordRateRefresh(ctx, "failure")
		s.log.Error("exchange rate refresh failed with empty cache", zap.Error(fetchErr))
		return decimal.Zero, domain.ErrRateUnavailable
	}

	row := domain.ExchangeRate{
		ID:        s.genID.Generate(),
		Pair:      domain.PairUSDKRW,
		Rate:      fresh,
		FetchedAt: now,
	}
	if err := s.repo.Replace(ctx, s.db, &row); err != nil {
		// A concurrent refresher may have won the race; the fetched quote
		// is still valid for this conversion.
		s.log.Warn("store refreshed exchange rate failed", zap.Error(err))
	}
	s.metrics.RecordRateRefresh(ctx, "success")
	return fresh, nil
}
