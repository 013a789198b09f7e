package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(newBucket),
	fx.Provide(newSignInLimiter),
)

func newBucket(cfg config.Config, clk clock.Clock) Bucket {
	if cfg.RedisAddr == "" {
		return NewMemoryBucket(clk)
	}
	return NewTokenBucket(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))
}

func newSignInLimiter(cfg config.Config, bucket Bucket, log *zap.Logger) *SignInLimiter {
	return NewSignInLimiter(bucket, cfg.RateLimit.SignInPerMinute, cfg.RateLimit.SignInBurst, log)
}
