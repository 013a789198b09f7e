package storage

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(NewMinioClient),
	fx.Provide(New),
	fx.Invoke(registerBucket),
)

func registerBucket(lc fx.Lifecycle, s *Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.EnsureBucket(ctx); err != nil {
				log.Warn("object storage unavailable at startup", zap.Error(err))
			}
			return nil
		},
	})
}
