package sweeper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/mailer"
	obsmetrics "github.com/modoocon/modoocon/internal/observability/metrics"
	"github.com/modoocon/modoocon/internal/payment/lock"
	settingsdomain "github.com/modoocon/modoocon/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("sweeper: invalid configuration")

// jobLockTTL bounds how long a crashed sweeper holds a job lock.
const jobLockTTL = 10 * time.Minute

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Locker   lock.Locker
	Mailer   mailer.Dispatcher
	Settings settingsdomain.Service
	Config   Config `optional:"true"`
}

// Sweeper enforces the account retention policy: warn inactive users, erase
// them past the retention window, and purge dead payment rows.
type Sweeper struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	locker   lock.Locker
	mailer   mailer.Dispatcher
	settings settingsdomain.Service
}

func New(p Params) (*Sweeper, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Locker == nil || p.Mailer == nil || p.Settings == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		db:       p.DB,
		log:      p.Log.Named("sweeper"),
		cfg:      p.Config.withDefaults(),
		clock:    p.Clock,
		locker:   p.Locker,
		mailer:   p.Mailer,
		settings: p.Settings,
	}, nil
}

func (s *Sweeper) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	token, ok, err := s.locker.TryLock(parent, "sweeper:"+name, jobLockTTL)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !ok {
		s.log.Info("job held by another instance, skipping", zap.String("job", name))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, "sweeper:"+name, token); err != nil {
			s.log.Warn("job lock release failed", zap.String("job", name), zap.Error(err))
		}
	}()

	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name), zap.Int("batch_size", batchSize))
	sweepMetrics := obsmetrics.Sweeper()
	sweepMetrics.IncJobRun(name)

	err = fn(ctx)
	sweepMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		sweepMetrics.IncJobTimeout(name)
	}
	sweepMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Sweeper) RunOnce(parent context.Context) error {
	policy, err := s.settings.Get(parent)
	if err != nil {
		return fmt.Errorf("load retention policy: %w", err)
	}

	var runErr error
	runErr = errors.Join(runErr, s.runJob(parent, "warn_inactive", s.cfg.BatchSize, s.cfg.JobTimeout, func(ctx context.Context) error {
		return s.warnInactiveJob(ctx, policy)
	}))
	runErr = errors.Join(runErr, s.runJob(parent, "erase_inactive", s.cfg.BatchSize, s.cfg.JobTimeout, func(ctx context.Context) error {
		return s.eraseInactiveJob(ctx, policy)
	}))
	runErr = errors.Join(runErr, s.runJob(parent, "purge_payments", s.cfg.BatchSize, s.cfg.JobTimeout, func(ctx context.Context) error {
		return s.purgePaymentsJob(ctx, policy)
	}))
	return runErr
}

// RunForever runs the sweep on a jittered interval so multiple instances do
// not hammer the job locks in lockstep.
func (s *Sweeper) RunForever(ctx context.Context) {
	sweepMetrics := obsmetrics.Sweeper()
	nextRun := time.Now().Add(s.cfg.RunInterval)

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			sweepMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		interval := jittered(s.cfg.RunInterval)
		nextRun = time.Now().Add(interval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// jittered spreads ticks by up to 10% of the interval.
func jittered(interval time.Duration) time.Duration {
	if interval <= 0 {
		return interval
	}
	jitter := time.Duration(rand.Int64N(int64(interval) / 10))
	return interval + jitter
}
