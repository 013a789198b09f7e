package domain

import (
	"testing"

	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateNumberIsRetryableStoreError(t *testing.T) {
	wrapped := ierr.WithError(ErrDuplicateNumber).WithMessage("insert document").Mark(ierr.ErrCollaborator)

	assert.True(t, ierr.Is(wrapped, ErrDuplicateNumber))
	assert.True(t, ierr.Is(ErrDuplicateNumber, ierr.ErrCollaborator))
	assert.False(t, ierr.Is(ErrDuplicateNumber, ierr.ErrVersionConflict))

	n := ierr.Notify(ErrDuplicateNumber)
	assert.Equal(t, ierr.KindCollaborator, n.Kind)
	assert.True(t, n.Retryable)
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{ErrInvalidKind, ierr.ErrValidation},
		{ErrNoLineItems, ierr.ErrValidation},
		{ErrDocumentNotFound, ierr.ErrNotFound},
		{ErrAccessDenied, ierr.ErrAccessDenied},
		{ErrVersionConflict, ierr.ErrVersionConflict},
	}
	for _, tc := range cases {
		assert.True(t, ierr.Is(tc.err, tc.kind), tc.err.Error())
	}
}
