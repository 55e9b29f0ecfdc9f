package events

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Publish when the backlog is at capacity.
	ErrQueueFull = errors.New("event queue is full")
	// ErrDispatcherClosed is returned by Publish after Close.
	ErrDispatcherClosed = errors.New("event dispatcher is closed")
)

type job struct {
	ctx     context.Context
	event   Event
	handler EventHandler
}

// AsyncDispatcher runs handlers on a fixed pool of workers fed by a bounded
// queue. Publish never blocks on handler work.
type AsyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan job
	closed    bool
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// NewAsyncDispatcher starts workers goroutines draining a queue of queueSize.
func NewAsyncDispatcher(workers, queueSize int, logger *zap.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &AsyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan job, queueSize),
		logger:    logger,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Publish enqueues one job per subscribed handler. Handlers see a context
// that keeps the caller's values but not its cancellation.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	detached := context.WithoutCancel(ctx)
	for _, handler := range d.listeners[event.Type] {
		select {
		case d.queue <- job{ctx: detached, event: event, handler: handler}:
		default:
			d.logger.Warn("dropping event, queue full",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID))
			return ErrQueueFull
		}
	}
	return nil
}

// Close stops accepting events and waits for queued work to finish or for
// ctx to expire.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *AsyncDispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("caught async exception",
				zap.String("event_type", string(j.event.Type)),
				zap.String("event_id", j.event.ID),
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	if err := j.handler(j.ctx, j.event); err != nil {
		d.logger.Error("caught async exception",
			zap.String("event_type", string(j.event.Type)),
			zap.String("event_id", j.event.ID),
			zap.Error(err))
	}
}
