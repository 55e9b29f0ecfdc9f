package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/account-service/internal/domain"
)

func TestInMemoryDispatcher_ContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventUserCreated}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestAsyncDispatcher_RunsHandlersAndDrainsOnClose(t *testing.T) {
	d := NewAsyncDispatcher(2, 16, zap.NewNop())
	var count atomic.Int32
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		count.Add(1)
		return nil
	})

	user := &domain.User{ID: "id-1", Login: "alice", Email: "alice@example.com"}
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Publish(context.Background(), NewUserEvent(EventUserRegistered, user, "key", time.Now())))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, int32(10), count.Load())

	assert.ErrorIs(t, d.Publish(context.Background(), Event{Type: EventUserRegistered}), ErrDispatcherClosed)
}

func TestAsyncDispatcher_LogsHandlerFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	d := NewAsyncDispatcher(1, 4, zap.New(core))
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		return errors.New("smtp down")
	})
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		panic("unexpected")
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e1", Type: EventUserCreated}))
	require.NoError(t, d.Close(context.Background()))

	entries := logs.FilterMessage("caught async exception").All()
	assert.Len(t, entries, 2)
}

func TestAsyncDispatcher_QueueFull(t *testing.T) {
	d := NewAsyncDispatcher(1, 1, zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventUserCreated}))
	<-started
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventUserCreated}))
	assert.ErrorIs(t, d.Publish(context.Background(), Event{Type: EventUserCreated}), ErrQueueFull)

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestAsyncDispatcher_DetachesCancellation(t *testing.T) {
	d := NewAsyncDispatcher(1, 1, zap.NewNop())
	got := make(chan error, 1)
	d.Subscribe(EventUserCreated, func(ctx context.Context, _ Event) error {
		got <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Publish(ctx, Event{Type: EventUserCreated}))
	require.NoError(t, d.Close(context.Background()))
	assert.NoError(t, <-got)
}
