package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      string
		message   string
		retryable bool
	}{
		{
			name:    "validation keeps hint",
			err:     Validation("at least one line item is required"),
			kind:    KindValidation,
			message: "at least one line item is required",
		},
		{
			name:    "access denied",
			err:     NewError("owner mismatch").Mark(ErrAccessDenied),
			kind:    KindAccessDenied,
			message: MessageAccessDenied,
		},
		{
			name:      "collaborator failure is retryable",
			err:       Collaborator(fmt.Errorf("connection reset"), "store.insert"),
			kind:      KindCollaborator,
			message:   MessageRetry,
			retryable: true,
		},
		{
			name:      "deadline maps to collaborator",
			err:       fmt.Errorf("insert: %w", context.DeadlineExceeded),
			kind:      KindCollaborator,
			message:   MessageRetry,
			retryable: true,
		},
		{
			name:    "invalid credentials",
			err:     WithError(ErrInvalidCredentials).Mark(ErrInvalidCredentials),
			kind:    KindInvalidCredentials,
			message: MessageInvalidCredentials,
		},
		{
			name:      "unknown error is generic",
			err:       fmt.Errorf("boom"),
			kind:      KindInternal,
			message:   MessageRetry,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Notify(tt.err)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.message, n.Message)
			assert.Equal(t, tt.retryable, n.Retryable)
		})
	}
}

func TestNotifyNil(t *testing.T) {
	assert.Equal(t, Notification{}, Notify(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatus(KindAccessDenied))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindVersionConflict))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindInvalidCredentials))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(KindRateLimited))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("whatever"))
}
