package dto

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// Validatable is implemented by every request payload.
type Validatable interface {
	Validate() error
}

var (
	loginRules = []validation.Rule{
		validation.Required,
		validation.Length(1, domain.LoginMaxLength),
		validation.Match(domain.LoginPattern),
	}
	passwordRules = []validation.Rule{
		validation.Required,
		validation.RuneLength(domain.PasswordMinLength, domain.PasswordMaxLength),
	}
)

// ValidationError converts ozzo errors into a VALIDATION_FAILED error with
// one detail per field.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("request validation failed", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

// Validate runs v.Validate and maps the result.
func Validate(v Validatable) error {
	return ValidationError(v.Validate())
}
