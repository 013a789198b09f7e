package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/pkg/db/option"
	"github.com/smallbiznis/bytebills/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	companies repository.Repository[domain.Company]
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{companies: repository.ProvideStore[domain.Company](conn)}
}

func (r *repo) Create(ctx context.Context, company *domain.Company) error {
	return r.companies.Create(ctx, company)
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	return r.companies.FindOne(ctx, &domain.Company{ID: id})
}

func (r *repo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Company, error) {
	items, err := r.companies.Find(ctx, &domain.Company{OwnerID: ownerID},
		option.WithSortBy(option.QuerySortBy{SortBy: "name", OrderBy: "asc", Default: "name"}),
	)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Company, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *repo) Save(ctx context.Context, company *domain.Company) error {
	return r.companies.Save(ctx, company)
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	return r.companies.Delete(ctx, id.String())
}
