package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/models"
)

// PageFetcher downloads a page as text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (string, error)
}

// run walks one invocation through its stages.
type run struct {
	stream models.Stream
	stage  Stage
	start  time.Time
	logger *zap.Logger
}

func newRun(stream models.Stream, logger *zap.Logger) *run {
	return &run{
		stream: stream,
		start:  time.Now(),
		logger: logger.With(zap.String("stream", string(stream))),
	}
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	r.logger.Debug("ingest stage", zap.String("stage", string(stage)))
}

func (r *run) fail(err error) error {
	failed := &IngestError{Stream: r.stream, Stage: r.stage, Err: err}
	r.stage = StageFailed
	r.logger.Warn("ingest run failed", zap.Error(failed), zap.Duration("duration", time.Since(r.start)))
	return failed
}

func (r *run) done(fields ...zap.Field) {
	r.stage = StageDone
	fields = append(fields, zap.Duration("duration", time.Since(r.start)))
	r.logger.Info("ingest run finished", fields...)
}
