package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRemover struct {
	calls int
	n     int
	err   error
}

func (f *fakeRemover) RemoveNotActivatedUsers(ctx context.Context) (int, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return f.n, f.err
}

func TestNewAccountCleanup_RejectsBadSchedule(t *testing.T) {
	_, err := NewAccountCleanup("not a cron", &fakeRemover{}, nil)
	require.Error(t, err)
}

func TestAccountCleanup_NextRunAtOneAM(t *testing.T) {
	job, err := NewAccountCleanup("0 1 * * *", &fakeRemover{}, nil)
	require.NoError(t, err)

	job.Start()
	defer func() { require.NoError(t, job.Stop(context.Background())) }()

	next := job.NextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, 1, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestAccountCleanup_RunLogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	remover := &fakeRemover{n: 3}
	job, err := NewAccountCleanup("@daily", remover, zap.New(core))
	require.NoError(t, err)

	job.Run(context.Background())
	assert.Equal(t, 1, remover.calls)
	entries := logs.FilterMessage("removed not activated users").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["removed"])

	remover.err = errors.New("db down")
	job.Run(context.Background())
	assert.Len(t, logs.FilterMessage("removing not activated users failed").All(), 1)
}
