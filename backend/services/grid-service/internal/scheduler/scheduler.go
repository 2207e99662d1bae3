// Package scheduler triggers periodic ingestion runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/ingest"
)

// Ticker is the part of time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the wall-clock TickerFactory.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Task is one named periodic job.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler owns one timer per task. Each task runs once immediately on Start and then
// on every tick; tasks never wait on each other.
type Scheduler struct {
	tasks     []Task
	newTicker TickerFactory
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a scheduler. A nil factory uses wall-clock tickers.
func New(tasks []Task, newTicker TickerFactory, logger *zap.Logger) *Scheduler {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{tasks: tasks, newTicker: newTicker, logger: logger}
}

// ForService schedules telemetry and news ingestion on their own intervals.
func ForService(svc *ingest.Service, telemetryInterval, newsInterval time.Duration, newTicker TickerFactory, logger *zap.Logger) *Scheduler {
	return New([]Task{
		{
			Name:     "telemetry",
			Interval: telemetryInterval,
			Run: func(ctx context.Context) error {
				_, err := svc.RunTelemetry(ctx)
				return err
			},
		},
		{
			Name:     "news",
			Interval: newsInterval,
			Run: func(ctx context.Context) error {
				_, err := svc.RunNews(ctx)
				return err
			},
		},
	}, newTicker, logger)
}

// Start launches the task loops. Calling Start on a running scheduler is an error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler: already started")
	}
	for _, t := range s.tasks {
		if t.Interval <= 0 {
			return fmt.Errorf("scheduler: task %s has no interval", t.Name)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, t := range s.tasks {
		ticker := s.newTicker(t.Interval)
		s.wg.Add(1)
		go s.loop(ctx, t, ticker)
	}
	s.logger.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
	return nil
}

// Stop cancels the loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t Task, ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	s.runOnce(ctx, t)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) {
	err := t.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ingest.ErrRunInProgress):
		s.logger.Info("scheduled run skipped, previous run still active", zap.String("task", t.Name))
	case ctx.Err() != nil:
		// shutting down
	default:
		s.logger.Warn("scheduled run failed", zap.String("task", t.Name), zap.Error(err))
	}
}
