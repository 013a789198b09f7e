package auth

import (
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/bytebills/internal/auth/repository"
	"github.com/smallbiznis/bytebills/internal/auth/service"
	"github.com/smallbiznis/bytebills/internal/auth/session"
	"github.com/smallbiznis/bytebills/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(newRevoker),
	fx.Provide(service.New),
	session.Module,
)

// newRevoker uses redis when REDIS_ADDR is set and falls back to an
// in-process store otherwise.
func newRevoker(cfg config.Config, log *zap.Logger) service.Revoker {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, token revocation is process-local")
		return service.NewMemoryRevoker()
	}
	return service.NewRedisRevoker(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))
}
