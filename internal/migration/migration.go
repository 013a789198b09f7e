// Package migration creates the tables the app needs on startup, so a
// fresh database is usable without a separate migration step.
package migration

import (
	"errors"
	"fmt"

	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&companydomain.Company{},
		&documentdomain.Document{},
	}
}

func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
