package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCleanupTimeout bounds one cleanup run.
const DefaultCleanupTimeout = 5 * time.Minute

// AccountRemover deletes stale unactivated accounts.
type AccountRemover interface {
	RemoveNotActivatedUsers(ctx context.Context) (int, error)
}

// AccountCleanup runs AccountRemover on a cron schedule.
type AccountCleanup struct {
	cron    *cron.Cron
	remover AccountRemover
	logger  *zap.Logger
	timeout time.Duration
}

// NewAccountCleanup parses schedule (standard five-field cron) and registers
// the cleanup job. The scheduler is not started.
func NewAccountCleanup(schedule string, remover AccountRemover, logger *zap.Logger) (*AccountCleanup, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	job := &AccountCleanup{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger.Sugar()}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger.Sugar()})),
		),
		remover: remover,
		logger:  logger,
		timeout: DefaultCleanupTimeout,
	}
	if _, err := job.cron.AddFunc(schedule, func() { job.Run(context.Background()) }); err != nil {
		return nil, err
	}
	return job, nil
}

// Start launches the scheduler in its own goroutine.
func (a *AccountCleanup) Start() {
	a.cron.Start()
	a.logger.Info("account cleanup scheduled", zap.Time("next_run", a.NextRun()))
}

// Stop halts the scheduler and waits for a running job or ctx.
func (a *AccountCleanup) Stop(ctx context.Context) error {
	done := a.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns when the job fires next, zero if not scheduled.
func (a *AccountCleanup) NextRun() time.Time {
	entries := a.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run executes one cleanup pass.
func (a *AccountCleanup) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	removed, err := a.remover.RemoveNotActivatedUsers(ctx)
	if err != nil {
		a.logger.Error("removing not activated users failed", zap.Int("removed", removed), zap.Error(err))
		return
	}
	a.logger.Info("removed not activated users", zap.Int("removed", removed))
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
