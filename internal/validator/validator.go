// Package validator wraps go-playground/validator and reports failures as
// validation errors with a user-facing hint.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator. Field names in errors use json tags.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// ValidateRequest checks req's struct tags.
func ValidateRequest(req any) error {
	err := Get().Struct(req)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !ierr.As(err, &validateErrs) || len(validateErrs) == 0 {
		return ierr.WithError(err).
			WithHint(ierr.MessageValidation).
			Mark(ierr.ErrValidation)
	}

	fields := make([]string, 0, len(validateErrs))
	for _, fe := range validateErrs {
		fields = append(fields, fieldPath(fe.Namespace()))
	}
	return ierr.WithError(err).
		WithHintf("Check these fields: %s.", strings.Join(fields, ", ")).
		Mark(ierr.ErrValidation)
}

// fieldPath drops the root struct name from a namespace such as
// "FormValues.items[0].quantity".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
