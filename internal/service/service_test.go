package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

type testClock struct {
	at time.Time
}

func (c *testClock) Now() time.Time { return c.at }

func (c *testClock) Advance(d time.Duration) { c.at = c.at.Add(d) }

type fixture struct {
	accounts   *AccountService
	users      *UserService
	repo       repository.UserRepository
	clock      *testClock
	dispatched []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := persistence.NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "svc.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{clock: &testClock{at: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, et := range []events.EventType{events.EventUserRegistered, events.EventUserCreated, events.EventPasswordResetRequested} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.dispatched = append(f.dispatched, e)
			return nil
		})
	}

	f.repo = repository.NewGormUserRepository(store.DB)
	deps := Dependencies{
		UserRepo:      f.repo,
		AuthorityRepo: repository.NewGormAuthorityRepository(store.DB),
		Dispatcher:    dispatcher,
		Logger:        zap.NewNop(),
		Now:           f.clock.Now,
	}
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	f.accounts = NewAccountService(cfg, deps)
	f.users = NewUserService(cfg, deps)
	return f
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, status, de.HTTPStatus, "error: %v", err)
	if code != "" {
		require.Equal(t, code, de.Code)
	}
}
