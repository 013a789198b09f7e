package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/auth/password"
	"github.com/smallbiznis/bytebills/internal/clock"
	"gorm.io/gorm"
)

var ErrBootstrapPassword = errors.New("bootstrap password is too short")

// User is the account seeded for local and self-hosted installs.
type User struct {
	Email       string
	Password    string
	DisplayName string
}

// EnsureUser creates the account unless one with the same email exists.
// It reports whether a row was inserted.
func EnsureUser(ctx context.Context, db *gorm.DB, node *snowflake.Node, clk clock.Clock, u User) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return false, errors.New("seed email is required")
	}
	if len(strings.TrimSpace(u.Password)) < password.MinLength {
		return false, ErrBootstrapPassword
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&authdomain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := password.Hash(u.Password)
		if err != nil {
			return err
		}
		displayName := strings.TrimSpace(u.DisplayName)
		if displayName == "" {
			displayName, _, _ = strings.Cut(email, "@")
		}
		now := clk.Now()
		if err := tx.Create(&authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			DisplayName:  displayName,
			PasswordHash: hashed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
