package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/models"
)

// Run outcomes reported to the Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Locker coordinates runs across replicas. TryLock reports false when another holder
// owns key; the returned unlock releases the lock.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(context.Context) error, ok bool, err error)
}

// Recorder observes run outcomes.
type Recorder interface {
	ObserveRun(stream models.Stream, outcome string, duration time.Duration)
	ObserveTelemetry(sample *models.TelemetrySample)
}

// Service is the single entry point for both the scheduler and manual triggers.
// Runs of the same stream never overlap; telemetry and news runs are independent.
type Service struct {
	telemetry *TelemetryJob
	news      *NewsJob

	telemetryGuard *guard
	newsGuard      *guard

	recorder Recorder
	logger   *zap.Logger
}

// NewService wires jobs with run guards. locker and recorder may be nil.
func NewService(telemetry *TelemetryJob, news *NewsJob, locker Locker, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		telemetry:      telemetry,
		news:           news,
		telemetryGuard: newGuard(models.StreamTelemetry, locker, logger),
		newsGuard:      newGuard(models.StreamNews, locker, logger),
		recorder:       recorder,
		logger:         logger,
	}
}

// RunTelemetry runs telemetry ingestion now, or returns ErrRunInProgress.
func (s *Service) RunTelemetry(ctx context.Context) (*models.TelemetrySample, error) {
	var sample *models.TelemetrySample
	err := s.guarded(ctx, s.telemetryGuard, func(ctx context.Context) error {
		var err error
		sample, err = s.telemetry.Run(ctx)
		return err
	})
	if err == nil && s.recorder != nil {
		s.recorder.ObserveTelemetry(sample)
	}
	return sample, err
}

// RunNews runs news ingestion now, or returns ErrRunInProgress.
func (s *Service) RunNews(ctx context.Context) ([]models.NewsItem, error) {
	var items []models.NewsItem
	err := s.guarded(ctx, s.newsGuard, func(ctx context.Context) error {
		var err error
		items, err = s.news.Run(ctx)
		return err
	})
	return items, err
}

// Running reports whether a run of stream is active in this process.
func (s *Service) Running(stream models.Stream) bool {
	switch stream {
	case models.StreamTelemetry:
		return s.telemetryGuard.running.Load()
	case models.StreamNews:
		return s.newsGuard.running.Load()
	}
	return false
}

func (s *Service) guarded(ctx context.Context, g *guard, fn func(context.Context) error) error {
	start := time.Now()
	err := g.do(ctx, fn)

	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, ErrRunInProgress):
		outcome = OutcomeSkipped
	case err != nil:
		outcome = OutcomeFailed
	}
	if s.recorder != nil {
		s.recorder.ObserveRun(g.stream, outcome, time.Since(start))
	}
	return err
}

// guard is the run-in-progress flag for one stream, optionally backed by a shared lock.
type guard struct {
	stream  models.Stream
	running atomic.Bool
	locker  Locker
	logger  *zap.Logger
}

func newGuard(stream models.Stream, locker Locker, logger *zap.Logger) *guard {
	return &guard{stream: stream, locker: locker, logger: logger}
}

func (g *guard) do(ctx context.Context, fn func(context.Context) error) error {
	if !g.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer g.running.Store(false)

	if g.locker != nil {
		unlock, ok, err := g.locker.TryLock(ctx, string(g.stream))
		switch {
		case err != nil:
			// The shared lock is advisory; the in-process flag still holds.
			g.logger.Warn("ingest lock unavailable, running unlocked", zap.String("stream", string(g.stream)), zap.Error(err))
		case !ok:
			return ErrRunInProgress
		default:
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					g.logger.Warn("failed to release ingest lock", zap.String("stream", string(g.stream)), zap.Error(err))
				}
			}()
		}
	}

	return fn(ctx)
}
