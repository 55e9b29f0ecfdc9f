package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"

	"github.com/spec-kit/account-service/internal/domain"
)

// ErrNotFound is returned by every store when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique login or email would be violated.
var ErrDuplicate = errors.New("duplicate record")

// UserFilter narrows List results.
type UserFilter struct {
	ExcludeLogin string
	Limit        int
	Offset       int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByActivationKey(ctx context.Context, key string) (*domain.User, error)
	GetByResetKey(ctx context.Context, key string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	ListNotActivatedBefore(ctx context.Context, before time.Time) ([]domain.User, error)
}

// AuthorityRepository exposes the authority catalogue.
type AuthorityRepository interface {
	List(ctx context.Context) ([]domain.Authority, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// Pinger reports store health for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func normalizeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
