package document

import (
	"github.com/smallbiznis/bytebills/internal/document/repository"
	"github.com/smallbiznis/bytebills/internal/document/service"
	"github.com/smallbiznis/bytebills/internal/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(s *storage.Service) service.AssetFetcher { return s }),
	fx.Provide(service.New),
)
