// Package domain holds the auth collaborator contract and the session
// value passed into every document operation.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Session identifies the signed-in user for one request.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	Token       string
	ExpiresAt   time.Time
}

// Valid reports whether the session carries a user.
func (s Session) Valid() bool {
	return s.UserID != ""
}

// User is a locally stored account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string       `gorm:"type:text"`
	PasswordHash string       `gorm:"type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// CurrentUser is the public view of the signed-in user.
type CurrentUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Service is the auth collaborator.
type Service interface {
	// CurrentUser returns nil, nil when the token carries no live session.
	CurrentUser(ctx context.Context, token string) (*CurrentUser, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	Register(ctx context.Context, email, displayName, password string) (*CurrentUser, error)
	Session(ctx context.Context, token string) (Session, error)
}

type sessionKey struct{}

// WithSession stores the session on the context for transport layers.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session placed by WithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || !s.Valid() {
		return Session{}, false
	}
	return s, true
}
