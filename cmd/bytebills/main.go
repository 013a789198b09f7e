package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/auth"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/company"
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/document"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/migration"
	"github.com/smallbiznis/bytebills/internal/observability"
	"github.com/smallbiznis/bytebills/internal/providers"
	"github.com/smallbiznis/bytebills/internal/ratelimit"
	"github.com/smallbiznis/bytebills/internal/report"
	"github.com/smallbiznis/bytebills/internal/server"
	"github.com/smallbiznis/bytebills/internal/storage"
	"github.com/smallbiznis/bytebills/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		storage.Module,
		migration.Module,

		// Functional Domains
		auth.Module,
		ratelimit.Module,
		company.Module,
		export.Module,
		document.Module,
		providers.Module,
		report.Module,

		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
