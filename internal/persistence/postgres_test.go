package persistence

import (
	"context"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

func TestMigrationFiles_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_add_index.sql": {Data: []byte("SELECT 1;")},
		"0001_init.sql":      {Data: []byte("SELECT 1;")},
		"README.md":          {Data: []byte("docs")},
		"archive/0000.sql":   {Data: []byte("SELECT 1;")},
	}

	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_add_index.sql"}, names)
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestPostgres_PingWithoutPool(t *testing.T) {
	var pg *Postgres
	assert.ErrorIs(t, pg.Ping(context.Background()), errPostgresNotConfigured)
	assert.NotPanics(t, pg.Close)
}

func TestRunMigrations_AppliesOnce(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	defer pg.Close()

	require.NoError(t, RunMigrations(ctx, pg.Pool, "../../migrations", zap.NewNop()))
	require.NoError(t, RunMigrations(ctx, pg.Pool, "../../migrations", zap.NewNop()))

	var count int
	require.NoError(t, pg.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE version = '0001_init.sql'`).Scan(&count))
	assert.Equal(t, 1, count)
}
