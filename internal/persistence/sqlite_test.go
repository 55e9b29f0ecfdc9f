package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/repository"
)

func TestNewSQLite_MigratesAndSeeds(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))

	authorities, err := repository.NewGormAuthorityRepository(store.DB).List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(authorities))
	for _, a := range authorities {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, names)
}

func TestNewSQLite_RejectsEmptyPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), config.SQLiteConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestRedis_DisabledWithoutAddr(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())

	assert.False(t, r.Enabled())
	assert.ErrorIs(t, r.Ping(context.Background()), ErrRedisDisabled)
	assert.NoError(t, r.Close())
}
