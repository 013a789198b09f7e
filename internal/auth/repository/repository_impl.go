package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/pkg/db"
	"github.com/smallbiznis/bytebills/pkg/repository"
	"gorm.io/gorm"
)

// Repository stores user accounts.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	// FindByEmail returns nil, nil when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error)
}

type repo struct {
	users repository.Repository[domain.User]
}

func New(conn *gorm.DB) Repository {
	return &repo{users: repository.ProvideStore[domain.User](conn)}
}

func (r *repo) Create(ctx context.Context, user *domain.User) error {
	err := r.users.Create(ctx, user)
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.users.FindOne(ctx, &domain.User{Email: strings.ToLower(email)})
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return r.users.FindOne(ctx, &domain.User{ID: id})
}
