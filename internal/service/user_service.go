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

// ManagedUserInput is the admin view of a user used for create and update.
type ManagedUserInput struct {
	ID          string
	Login       string
	FirstName   string
	LastName    string
	Email       string
	ImageURL    string
	LangKey     string
	Activated   bool
	Authorities []string
}

// UserService implements admin user management.
type UserService struct {
	users       repository.UserRepository
	authorities repository.AuthorityRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	now         func() time.Time
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps Dependencies) *UserService {
	return &UserService{
		users:       deps.UserRepo,
		authorities: deps.AuthorityRepo,
		dispatcher:  deps.Dispatcher,
		logger:      deps.logger(),
		bcryptCost:  cfg.Auth.BcryptCost,
		now:         deps.clock(),
	}
}

// CreateUser creates an activated account with a throwaway password and a
// fresh reset key, so the invitation mail can carry a reset link.
func (s *UserService) CreateUser(ctx context.Context, in ManagedUserInput) (*domain.User, error) {
	if in.ID != "" {
		return nil, apperrors.NewBadRequest(CodeIDExists, "a new user cannot already have an ID")
	}
	login := normalizeLogin(in.Login)
	email := normalizeEmail(in.Email)
	if err := checkUnique(ctx, s.users, "", login, email); err != nil {
		return nil, err
	}
	authorities, err := s.resolveAuthorities(ctx, in.Authorities)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(auth.RandomPassword(), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	resetKey := auth.RandomKey()
	by := auditor(ctx)
	user := &domain.User{
		ID:             uuid.NewString(),
		Login:          login,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          email,
		ImageURL:       in.ImageURL,
		Activated:      true,
		LangKey:        langOrDefault(in.LangKey),
		ResetKey:       &resetKey,
		ResetDate:      &now,
		Authorities:    authorities,
		CreatedBy:      by,
		CreatedAt:      now,
		LastModifiedBy: by,
		LastModifiedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Debug("created user", zap.String("login", user.Login), zap.String("by", by))
	publish(ctx, s.dispatcher, s.logger, events.NewUserEvent(events.EventUserCreated, user, resetKey, now))
	return user, nil
}

// UpdateUser replaces the editable fields and authorities of an existing user.
func (s *UserService) UpdateUser(ctx context.Context, in ManagedUserInput) (*domain.User, error) {
	if in.ID == "" {
		return nil, apperrors.NewValidationError("id is required", map[string]any{"id": "cannot be blank"})
	}
	user, err := s.users.GetByID(ctx, in.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	login := normalizeLogin(in.Login)
	email := normalizeEmail(in.Email)
	if err := checkUnique(ctx, s.users, user.ID, login, email); err != nil {
		return nil, err
	}
	authorities, err := s.resolveAuthorities(ctx, in.Authorities)
	if err != nil {
		return nil, err
	}

	user.Login = login
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = email
	user.ImageURL = in.ImageURL
	user.Activated = in.Activated
	user.LangKey = langOrDefault(in.LangKey)
	user.Authorities = authorities
	user.LastModifiedBy = auditor(ctx)
	user.LastModifiedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Debug("updated user", zap.String("login", user.Login))
	return user, nil
}

// DeleteUser removes login. Deleting a missing user is not an error.
func (s *UserService) DeleteUser(ctx context.Context, login string) error {
	user, err := s.users.GetByLogin(ctx, normalizeLogin(login))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return mapStoreErr(err)
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return mapStoreErr(err)
	}
	s.logger.Debug("deleted user", zap.String("login", user.Login))
	return nil
}

// GetUser returns the user with its authorities.
func (s *UserService) GetUser(ctx context.Context, login string) (*domain.User, error) {
	user, err := s.users.GetByLogin(ctx, normalizeLogin(login))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// ListUsers returns one page of users, hiding the anonymous account, and the
// total number of users across all pages.
func (s *UserService) ListUsers(ctx context.Context, page, size int) ([]domain.User, int, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	users, total, err := s.users.List(ctx, repository.UserFilter{
		ExcludeLogin: domain.AnonymousUser,
		Limit:        size,
		Offset:       page * size,
	})
	if err != nil {
		return nil, 0, mapStoreErr(err)
	}
	return users, total, nil
}

// Authorities lists every authority name.
func (s *UserService) Authorities(ctx context.Context) ([]string, error) {
	all, err := s.authorities.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names := make([]string, 0, len(all))
	for _, a := range all {
		names = append(names, a.Name)
	}
	return names, nil
}

// RemoveNotActivatedUsers deletes accounts still inactive NotActivatedRetention
// after creation. It returns the number of deleted accounts.
func (s *UserService) RemoveNotActivatedUsers(ctx context.Context) (int, error) {
	stale, err := s.users.ListNotActivatedBefore(ctx, s.now().Add(-NotActivatedRetention))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, user := range stale {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		s.logger.Debug("deleting not activated user", zap.String("login", user.Login))
		if err := s.users.Delete(ctx, user.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *UserService) resolveAuthorities(ctx context.Context, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		ok, err := s.authorities.Exists(ctx, name)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !ok {
			return nil, apperrors.NewBadRequest(CodeUnknownAuthority, "unknown authority "+name)
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}
