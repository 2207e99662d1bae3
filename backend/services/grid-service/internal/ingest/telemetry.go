package ingest

import (
	"context"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/classify"
	"gridpulse/backend/services/grid-service/internal/extract"
	"gridpulse/backend/services/grid-service/internal/models"
)

// TelemetryStore is the write side of the telemetry table.
type TelemetryStore interface {
	Insert(ctx context.Context, sample *models.TelemetrySample) error
}

// TelemetrySource describes the telemetry page.
type TelemetrySource struct {
	URL     string
	Tag     string
	Headers map[string]string
}

// TelemetryJob runs fetch, extract, classify and persist for the telemetry stream.
type TelemetryJob struct {
	source    TelemetrySource
	fetcher   PageFetcher
	extractor *extract.TelemetryExtractor
	store     TelemetryStore
	logger    *zap.Logger
}

// NewTelemetryJob builds job. A nil extractor uses the default chains.
func NewTelemetryJob(source TelemetrySource, fetcher PageFetcher, extractor *extract.TelemetryExtractor, store TelemetryStore, logger *zap.Logger) *TelemetryJob {
	if extractor == nil {
		extractor = extract.NewTelemetryExtractor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryJob{
		source:    source,
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// Run performs one ingestion. A fetch failure aborts before anything is written.
// A reachable page with nothing recognisable still produces a sample whose fields are
// all nil.
func (j *TelemetryJob) Run(ctx context.Context) (*models.TelemetrySample, error) {
	r := newRun(models.StreamTelemetry, j.logger)

	r.enter(StageFetching)
	html, err := j.fetcher.Fetch(ctx, j.source.URL, j.source.Headers)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(StageExtracting)
	fields := j.extractor.Extract(html)
	for field, m := range fields.RawMatches {
		r.logger.Debug("field extracted",
			zap.String("field", field),
			zap.String("strategy", m.Strategy),
			zap.String("raw", m.Raw),
		)
	}

	r.enter(StageClassifying)
	sample := &models.TelemetrySample{
		GenerationMW: fields.GenerationMW,
		FrequencyHz:  fields.FrequencyHz,
		LoadPercent:  fields.LoadPercent,
		Source:       j.source.Tag,
	}
	if status, ok := classify.Status(fields.FrequencyHz); ok {
		sample.Status = &status
	}

	r.enter(StagePersisting)
	if err := j.store.Insert(ctx, sample); err != nil {
		return nil, r.fail(err)
	}

	r.done(
		zap.String("id", sample.ID),
		optionalFloat("generation_mw", sample.GenerationMW),
		optionalFloat("frequency_hz", sample.FrequencyHz),
		optionalFloat("load_percent", sample.LoadPercent),
		zap.Bool("empty", sample.Empty()),
	)
	return sample, nil
}

func optionalFloat(key string, v *float64) zap.Field {
	if v == nil {
		return zap.Skip()
	}
	return zap.Float64(key, *v)
}
