package providers

import (
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	fx.Provide(func(cfg config.Config) pdf.Provider { return pdf.New(cfg.AppName) }),
)
