package company

import (
	"github.com/smallbiznis/bytebills/internal/company/repository"
	"github.com/smallbiznis/bytebills/internal/company/service"
	"github.com/smallbiznis/bytebills/internal/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(s *storage.Service) service.ObjectStore { return s }),
	fx.Provide(service.New),
)
