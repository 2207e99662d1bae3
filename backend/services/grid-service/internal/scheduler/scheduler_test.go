package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gridpulse/backend/services/grid-service/internal/ingest"
)

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type tickers struct {
	mu    sync.Mutex
	byDur map[time.Duration]*manualTicker
}

func newTickers() *tickers {
	return &tickers{byDur: make(map[time.Duration]*manualTicker)}
}

func (f *tickers) factory(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.byDur[d] = t
	return t
}

func (f *tickers) get(d time.Duration) *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byDur[d]
}

func (f *tickers) tick(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case f.get(d).ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("tick for %s not consumed", d)
	}
}

func recordingTask(name string, interval time.Duration, runs chan<- string, err error) Task {
	return Task{
		Name:     name,
		Interval: interval,
		Run: func(context.Context) error {
			runs <- name
			return err
		},
	}
}

func expectRun(t *testing.T, runs <-chan string, want string) {
	t.Helper()
	select {
	case got := <-runs:
		if got != want {
			t.Fatalf("expected run of %s, got %s", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func expectNoRun(t *testing.T, runs <-chan string) {
	t.Helper()
	select {
	case got := <-runs:
		t.Fatalf("unexpected run of %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerImmediateRunThenTicks(t *testing.T) {
	f := newTickers()
	runs := make(chan string, 10)
	s := New([]Task{recordingTask("telemetry", 5*time.Minute, runs, nil)}, f.factory, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	expectRun(t, runs, "telemetry")
	expectNoRun(t, runs)

	f.tick(t, 5*time.Minute)
	expectRun(t, runs, "telemetry")
	f.tick(t, 5*time.Minute)
	expectRun(t, runs, "telemetry")
}

func TestSchedulerTasksAreIndependent(t *testing.T) {
	f := newTickers()
	telemetryRuns := make(chan string, 10)
	newsRuns := make(chan string, 10)
	s := New([]Task{
		recordingTask("telemetry", 5*time.Minute, telemetryRuns, errors.New("upstream 503")),
		recordingTask("news", 30*time.Minute, newsRuns, nil),
	}, f.factory, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	expectRun(t, telemetryRuns, "telemetry")
	expectRun(t, newsRuns, "news")

	// A failing telemetry run keeps its own schedule and leaves news alone.
	f.tick(t, 5*time.Minute)
	expectRun(t, telemetryRuns, "telemetry")
	expectNoRun(t, newsRuns)

	f.tick(t, 30*time.Minute)
	expectRun(t, newsRuns, "news")
	expectNoRun(t, telemetryRuns)
}

func TestSchedulerSkippedRunKeepsLooping(t *testing.T) {
	f := newTickers()
	runs := make(chan string, 10)
	s := New([]Task{recordingTask("news", time.Minute, runs, ingest.ErrRunInProgress)}, f.factory, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	expectRun(t, runs, "news")
	f.tick(t, time.Minute)
	expectRun(t, runs, "news")
}

func TestSchedulerStopStopsTimers(t *testing.T) {
	f := newTickers()
	runs := make(chan string, 10)
	s := New([]Task{recordingTask("telemetry", time.Minute, runs, nil)}, f.factory, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectRun(t, runs, "telemetry")

	s.Stop()
	if !f.get(time.Minute).isStopped() {
		t.Fatal("ticker not stopped")
	}
	select {
	case f.get(time.Minute).ch <- time.Now():
		t.Fatal("loop still consuming ticks after Stop")
	case <-time.After(50 * time.Millisecond):
	}

	// Stop is idempotent.
	s.Stop()
}

func TestSchedulerStartValidation(t *testing.T) {
	runs := make(chan string, 10)

	s := New([]Task{recordingTask("telemetry", 0, runs, nil)}, newTickers().factory, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for zero interval")
	}

	s = New([]Task{recordingTask("telemetry", time.Minute, runs, nil)}, newTickers().factory, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error on second Start")
	}
}

func TestSchedulerStopsWithParentContext(t *testing.T) {
	f := newTickers()
	runs := make(chan string, 10)
	s := New([]Task{recordingTask("news", time.Minute, runs, nil)}, f.factory, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectRun(t, runs, "news")

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after parent cancellation")
	}
}
