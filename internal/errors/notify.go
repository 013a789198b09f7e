package errors

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Notification is the user-facing rendition of an error.
type Notification struct {
	Kind      string `json:"type"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Notify converts any error into a Notification. Unknown errors become a
// generic retryable message so internals never leak to the user.
func Notify(err error) Notification {
	if err == nil {
		return Notification{}
	}

	switch {
	case errors.Is(err, ErrValidation):
		return Notification{Kind: KindValidation, Message: hintOr(err, MessageValidation)}
	case errors.Is(err, ErrAccessDenied):
		return Notification{Kind: KindAccessDenied, Message: MessageAccessDenied}
	case errors.Is(err, ErrNotFound):
		return Notification{Kind: KindNotFound, Message: hintOr(err, MessageNotFound)}
	case errors.Is(err, ErrVersionConflict):
		return Notification{Kind: KindVersionConflict, Message: MessageVersionConflict, Retryable: true}
	case errors.Is(err, ErrInvalidCredentials):
		return Notification{Kind: KindInvalidCredentials, Message: MessageInvalidCredentials}
	case errors.Is(err, ErrUnauthenticated):
		return Notification{Kind: KindUnauthenticated, Message: MessageUnauthenticated}
	case errors.Is(err, ErrRateLimited):
		return Notification{Kind: KindRateLimited, Message: hintOr(err, MessageRateLimited), Retryable: true}
	case errors.Is(err, ErrCollaborator),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Notification{Kind: KindCollaborator, Message: MessageRetry, Retryable: true}
	default:
		return Notification{Kind: KindInternal, Message: MessageRetry, Retryable: true}
	}
}

// HTTPStatus maps a notification kind to a status code.
func HTTPStatus(kind string) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindVersionConflict:
		return http.StatusConflict
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func hintOr(err error, fallback string) string {
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return fallback
	}
	return hints[0]
}
