package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const (
	// PasswordResetWindow bounds how long a reset key stays usable.
	PasswordResetWindow = 24 * time.Hour
	// NotActivatedRetention is how long an unactivated account is kept.
	NotActivatedRetention = 3 * 24 * time.Hour
)

// Error codes returned to clients by the account services.
const (
	CodeLoginAlreadyUsed = "LOGIN_ALREADY_USED"
	CodeEmailAlreadyUsed = "EMAIL_ALREADY_USED"
	CodeEmailNotFound    = "EMAIL_NOT_FOUND"
	CodeInvalidPassword  = "INVALID_PASSWORD"
	CodeBadCredentials   = "BAD_CREDENTIALS"
	CodeUserNotActivated = "USER_NOT_ACTIVATED"
	CodeIDExists         = "ID_EXISTS"
	CodeUnknownAuthority = "UNKNOWN_AUTHORITY"
)

// Dependencies encapsulates collaborators shared by the account services.
type Dependencies struct {
	UserRepo      repository.UserRepository
	AuthorityRepo repository.AuthorityRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Now           func() time.Time
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Dependencies) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

// auditor returns the login recorded in CreatedBy / LastModifiedBy.
func auditor(ctx context.Context) string {
	if login, ok := auth.CurrentLogin(ctx); ok {
		return login
	}
	return domain.SystemAccount
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func langOrDefault(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return domain.DefaultLangKey
	}
	return lang
}

func invalidPassword() error {
	return apperrors.NewBadRequest(CodeInvalidPassword, "incorrect password")
}

func loginAlreadyUsed() error {
	return apperrors.NewBadRequest(CodeLoginAlreadyUsed, "login name already used")
}

func emailAlreadyUsed() error {
	return apperrors.NewBadRequest(CodeEmailAlreadyUsed, "email is already in use")
}

func userNotFound(details map[string]any) error {
	return apperrors.NewNotFound("user", details)
}

// checkUnique rejects a login or email owned by a user other than selfID.
func checkUnique(ctx context.Context, users repository.UserRepository, selfID, login, email string) error {
	if login != "" {
		existing, err := users.GetByLogin(ctx, login)
		switch {
		case err == nil && existing.ID != selfID:
			return loginAlreadyUsed()
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return apperrors.MapError(err)
		}
	}
	if email != "" {
		existing, err := users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != selfID:
			return emailAlreadyUsed()
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return apperrors.MapError(err)
		}
	}
	return nil
}

// mapStoreErr turns store errors into client errors.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return userNotFound(nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("login or email already in use", nil)
	default:
		return apperrors.MapError(err)
	}
}

func publish(ctx context.Context, d events.Dispatcher, logger *zap.Logger, event events.Event) {
	if d == nil {
		return
	}
	if err := d.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed",
			zap.String("event_type", string(event.Type)),
			zap.String("login", event.Login),
			zap.Error(err))
	}
}
