package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
		if err := RunMigrations(conn); err != nil {
			return err
		}
		if cfg.Bootstrap.Email == "" {
			return nil
		}
		created, err := seed.EnsureUser(context.Background(), conn, node, clk, seed.User{
			Email:       cfg.Bootstrap.Email,
			Password:    cfg.Bootstrap.Password,
			DisplayName: cfg.Bootstrap.DisplayName,
		})
		if err != nil {
			return err
		}
		if created {
			log.Info("bootstrap user created", zap.String("email", cfg.Bootstrap.Email))
		}
		return nil
	}),
)
