package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"salesdash/internal/dataset"
	"salesdash/internal/infrastructure"
)

// Refresher reloads the dataset.
type Refresher interface {
	Refresh(ctx context.Context) (DatasetStatus, error)
}

// RefreshScheduler triggers dataset refreshes on a cron schedule.
type RefreshScheduler struct {
	refresher Refresher
	schedule  string
	timeout   time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	running bool
}

// NewRefreshScheduler creates a scheduler. schedule is a standard five-field
// cron expression or a descriptor such as "@every 15m"; empty disables it.
func NewRefreshScheduler(refresher Refresher, schedule string, timeout time.Duration, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "refresh_scheduler"))
	cl := cronLogger{logger: logger}
	return &RefreshScheduler{
		refresher: refresher,
		schedule:  schedule,
		timeout:   timeout,
		logger:    logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start registers the job and starts the cron loop.
func (s *RefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		return ErrNoRefreshSchedule
	}
	if s.running {
		return ErrSchedulerRunning
	}

	id, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
	}
	s.entry = id
	s.cron.Start()
	s.running = true

	s.logger.Info("refresh scheduler started",
		slog.String("schedule", s.schedule),
		slog.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

// Stop halts the schedule and waits for a running job until ctx is done.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cron.Remove(s.entry)
	stopped := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		s.logger.Info("refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next scheduled run, or the zero time when stopped.
func (s *RefreshScheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunOnce performs one refresh with the configured timeout. A refresh
// already in progress is skipped.
func (s *RefreshScheduler) RunOnce(ctx context.Context) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	status, err := s.refresher.Refresh(ctx)
	switch {
	case errors.Is(err, dataset.ErrRefreshInProgress):
		s.logger.InfoContext(ctx, "scheduled refresh skipped, another refresh is running")
		return nil
	case err != nil:
		s.logger.ErrorContext(ctx, "scheduled refresh failed", slog.String("error", err.Error()))
		return err
	}

	s.logger.InfoContext(ctx, "scheduled refresh completed",
		slog.String("source", status.Source),
		slog.Int("rows", status.RowCount))
	return nil
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
