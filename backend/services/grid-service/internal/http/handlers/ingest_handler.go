package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/fetcher"
	"gridpulse/backend/services/grid-service/internal/ingest"
	"gridpulse/backend/services/grid-service/internal/models"
)

// Trigger runs ingestion on demand.
type Trigger interface {
	RunTelemetry(ctx context.Context) (*models.TelemetrySample, error)
	RunNews(ctx context.Context) ([]models.NewsItem, error)
}

// NewTelemetryTriggerHandler returns POST /ingest/telemetry handler.
func NewTelemetryTriggerHandler(trigger Trigger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample, err := trigger.RunTelemetry(r.Context())
		if err != nil {
			writeIngestError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sample": sample,
		})
	}
}

// NewNewsTriggerHandler returns POST /ingest/news handler.
func NewNewsTriggerHandler(trigger Trigger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := trigger.RunNews(r.Context())
		if err != nil {
			writeIngestError(w, logger, err)
			return
		}
		if items == nil {
			items = []models.NewsItem{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"inserted": len(items),
			"items":    items,
		})
	}
}

func writeIngestError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var fetchErr *fetcher.FetchError
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		writeError(w, http.StatusConflict, "ingestion already running")
	case errors.As(err, &fetchErr):
		writeError(w, http.StatusBadGateway, "upstream source unavailable")
	default:
		logger.Error("manual ingestion failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ingestion failed")
	}
}
