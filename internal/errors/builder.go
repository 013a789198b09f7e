package errors

import (
	"github.com/cockroachdb/errors"
)

// ErrorBuilder assembles a marked error. Mark must be the last call.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder chain with a fresh error.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder chain around an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage adds internal context.
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithMessagef adds formatted internal context.
func (b *ErrorBuilder) WithMessagef(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithMessagef(b.err, format, args...)
	return b
}

// WithHint adds the message meant for the user.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is WithHint with formatting.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// Mark tags the error with a sentinel kind.
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

// Collaborator wraps an I/O failure from the store, storage or auth backends.
func Collaborator(err error, op string) error {
	if err == nil {
		return nil
	}
	return WithError(err).
		WithMessage(op).
		WithHint(MessageRetry).
		Mark(ErrCollaborator)
}

// Validation builds a validation error carrying the user-facing message.
func Validation(msg string) error {
	return NewError(msg).
		WithHint(msg).
		Mark(ErrValidation)
}

// Wrap adds internal context to err without marking it.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}
