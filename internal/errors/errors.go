// Package errors defines the error taxonomy shared by the document
// pipeline. Errors are marked with one of the sentinel kinds below and
// may carry a hint, which is the message shown to the user.
package errors

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrValidation         = errors.New("validation_error")
	ErrAccessDenied       = errors.New("access_denied")
	ErrNotFound           = errors.New("not_found")
	ErrCollaborator       = errors.New("collaborator_failure")
	ErrVersionConflict    = errors.New("version_conflict")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrRateLimited        = errors.New("rate_limited")
)

const (
	KindValidation         = "validation_error"
	KindAccessDenied       = "access_denied"
	KindNotFound           = "not_found"
	KindCollaborator       = "collaborator_failure"
	KindVersionConflict    = "version_conflict"
	KindInvalidCredentials = "invalid_credentials"
	KindUnauthenticated    = "unauthenticated"
	KindRateLimited        = "rate_limited"
	KindInternal           = "internal_error"
)

const (
	MessageRetry              = "Something went wrong. Please try again."
	MessageInvalidCredentials = "Invalid email or password."
	MessageAccessDenied       = "You do not have access to this document."
	MessageNotFound           = "The requested document could not be found."
	MessageVersionConflict    = "This document was changed elsewhere. Reload it and try again."
	MessageUnauthenticated    = "Please sign in to continue."
	MessageValidation         = "Some fields are missing or invalid."
	MessageRateLimited        = "Too many requests. Wait a moment and try again."
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
