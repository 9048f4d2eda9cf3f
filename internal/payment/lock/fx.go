package lock

import (
	"github.com/modoocon/modoocon/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provide picks the lock backend: redis when an address is configured,
// otherwise an in-process locker good for a single node.
func Provide(cfg config.Config, log *zap.Logger) Locker {
	if cfg.RedisAddr == "" {
		log.Named("lock").Info("no redis configured, using in-process locks")
		return NewMemoryLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return NewRedisLocker(client)
}

var Module = fx.Module("lock",
	fx.Provide(Provide),
)
