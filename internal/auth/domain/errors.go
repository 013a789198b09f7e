package domain

import (
	ierr "github.com/smallbiznis/bytebills/internal/errors"
)

var (
	ErrInvalidCredentials = ierr.NewError("invalid_credentials").
		Mark(ierr.ErrInvalidCredentials)
	ErrUserExists = ierr.NewError("user_exists").
		WithHint("An account with this email already exists.").
		Mark(ierr.ErrValidation)
	ErrWeakPassword = ierr.NewError("weak_password").
		WithHint("Passwords must be at least 8 characters.").
		Mark(ierr.ErrValidation)
	ErrInvalidSession = ierr.NewError("invalid_session").
		Mark(ierr.ErrUnauthenticated)
	ErrSessionRevoked = ierr.NewError("session_revoked").
		Mark(ierr.ErrUnauthenticated)
)
