package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Login     string
	Password  string
	FirstName string
	LastName  string
	Email     string
	ImageURL  string
	LangKey   string
}

// AccountInput carries the profile fields a user may change on their own account.
type AccountInput struct {
	FirstName string
	LastName  string
	Email     string
	ImageURL  string
	LangKey   string
}

// AdminInput describes the bootstrap administrator.
type AdminInput struct {
	Login    string
	Email    string
	Password string
}

// AccountService coordinates registration, activation, login and password flows.
type AccountService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps Dependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
		bcryptCost: cfg.Auth.BcryptCost,
		now:        deps.clock(),
	}
}

// Register creates an inactive account holding ROLE_USER and an activation key.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !domain.ValidPasswordLength(in.Password) {
		return nil, invalidPassword()
	}
	login := normalizeLogin(in.Login)
	email := normalizeEmail(in.Email)
	if err := checkUnique(ctx, s.users, "", login, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	activationKey := auth.RandomKey()
	by := auditor(ctx)
	user := &domain.User{
		ID:             uuid.NewString(),
		Login:          login,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          email,
		ImageURL:       in.ImageURL,
		Activated:      false,
		LangKey:        langOrDefault(in.LangKey),
		ActivationKey:  &activationKey,
		Authorities:    []string{domain.AuthorityUser},
		CreatedBy:      by,
		CreatedAt:      now,
		LastModifiedBy: by,
		LastModifiedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Debug("registered user", zap.String("login", user.Login))
	publish(ctx, s.dispatcher, s.logger, events.NewUserEvent(events.EventUserRegistered, user, activationKey, now))
	return user, nil
}

// Activate marks the account owning key as activated and clears the key.
func (s *AccountService) Activate(ctx context.Context, key string) (*domain.User, error) {
	if key == "" {
		return nil, userNotFound(map[string]any{"reason": "no user was found for this activation key"})
	}
	user, err := s.users.GetByActivationKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, userNotFound(map[string]any{"reason": "no user was found for this activation key"})
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}

	user.Activated = true
	user.ActivationKey = nil
	s.touch(ctx, user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	s.logger.Debug("activated user", zap.String("login", user.Login))
	return user, nil
}

// RequestPasswordReset issues a reset key to the activated user owning email.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !user.Activated) {
		return nil, apperrors.NewBadRequest(CodeEmailNotFound, "email address not registered")
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}

	now := s.now()
	resetKey := auth.RandomKey()
	user.ResetKey = &resetKey
	user.ResetDate = &now
	s.touch(ctx, user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.NewUserEvent(events.EventPasswordResetRequested, user, resetKey, now))
	return user, nil
}

// CompletePasswordReset sets a new password for the user owning key when the
// key was issued within PasswordResetWindow.
func (s *AccountService) CompletePasswordReset(ctx context.Context, newPassword, key string) (*domain.User, error) {
	if !domain.ValidPasswordLength(newPassword) {
		return nil, invalidPassword()
	}
	noUser := userNotFound(map[string]any{"reason": "no user was found for this reset key"})
	if key == "" {
		return nil, noUser
	}

	user, err := s.users.GetByResetKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, noUser
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if user.ResetDate == nil || !user.ResetDate.After(s.now().Add(-PasswordResetWindow)) {
		return nil, noUser
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	user.ResetKey = nil
	user.ResetDate = nil
	s.touch(ctx, user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AccountService) ChangePassword(ctx context.Context, login, currentPassword, newPassword string) error {
	if !domain.ValidPasswordLength(newPassword) {
		return invalidPassword()
	}
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return invalidPassword()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	s.touch(ctx, user)
	if err := s.users.Update(ctx, user); err != nil {
		return mapStoreErr(err)
	}
	s.logger.Debug("changed password", zap.String("login", user.Login))
	return nil
}

// Account returns the user record of login.
func (s *AccountService) Account(ctx context.Context, login string) (*domain.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// UpdateAccount changes the profile of login. The email must not belong to
// another user.
func (s *AccountService) UpdateAccount(ctx context.Context, login string, in AccountInput) (*domain.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	email := normalizeEmail(in.Email)
	if err := checkUnique(ctx, s.users, user.ID, "", email); err != nil {
		return nil, err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = email
	user.ImageURL = in.ImageURL
	user.LangKey = langOrDefault(in.LangKey)
	s.touch(ctx, user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// Authenticate checks credentials and returns the identity to put in a token.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (auth.Identity, error) {
	badCredentials := apperrors.NewUnauthorizedCode(CodeBadCredentials, "bad credentials")

	user, err := s.users.GetByLogin(ctx, normalizeLogin(username))
	if errors.Is(err, repository.ErrNotFound) {
		return auth.Identity{}, badCredentials
	}
	if err != nil {
		return auth.Identity{}, mapStoreErr(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return auth.Identity{}, badCredentials
	}
	if !user.Activated {
		return auth.Identity{}, apperrors.NewUnauthorizedCode(CodeUserNotActivated, "user "+user.Login+" was not activated")
	}

	return auth.Identity{Username: user.Login, Authorities: append([]string(nil), user.Authorities...)}, nil
}

// EnsureAdmin creates an activated administrator when login is unused. It
// reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, in AdminInput) (bool, error) {
	login := normalizeLogin(in.Login)
	if login == "" || in.Password == "" {
		return false, apperrors.NewValidationError("admin login and password are required", nil)
	}
	_, err := s.users.GetByLogin(ctx, login)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, mapStoreErr(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	now := s.now()
	user := &domain.User{
		ID:             uuid.NewString(),
		Login:          login,
		PasswordHash:   hash,
		FirstName:      "Administrator",
		Email:          normalizeEmail(in.Email),
		Activated:      true,
		LangKey:        domain.DefaultLangKey,
		Authorities:    []string{domain.AuthorityAdmin, domain.AuthorityUser},
		CreatedBy:      domain.SystemAccount,
		CreatedAt:      now,
		LastModifiedBy: domain.SystemAccount,
		LastModifiedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, mapStoreErr(err)
	}
	s.logger.Info("bootstrapped administrator", zap.String("login", login))
	return true, nil
}

func (s *AccountService) touch(ctx context.Context, user *domain.User) {
	user.LastModifiedBy = auditor(ctx)
	user.LastModifiedAt = s.now()
}
