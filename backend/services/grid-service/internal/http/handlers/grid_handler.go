package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/models"
)

const (
	recentNewsLimit     = 10
	defaultReportsLimit = 10
	maxReportsLimit     = 50
)

// TelemetryReader reads the newest telemetry sample.
type TelemetryReader interface {
	Latest(ctx context.Context) (*models.TelemetrySample, error)
}

// ReportReader reads power reports.
type ReportReader interface {
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.PowerReport, error)
}

// NewsReader reads stored news.
type NewsReader interface {
	Recent(ctx context.Context, limit int) ([]models.NewsItem, error)
}

// NewSnapshotHandler returns GET /grid/snapshot handler.
func NewSnapshotHandler(telemetry TelemetryReader, reports ReportReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := telemetry.Latest(r.Context())
		if err != nil {
			logger.Error("failed to read latest telemetry", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch grid snapshot")
			return
		}
		count, err := reports.Count(r.Context())
		if err != nil {
			logger.Error("failed to count reports", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch grid snapshot")
			return
		}

		snapshot := models.GridSnapshot{Reports: &count}
		if latest != nil {
			snapshot.GenerationMW = latest.GenerationMW
			snapshot.FrequencyHz = latest.FrequencyHz
			snapshot.LoadPercent = latest.LoadPercent
			snapshot.Status = latest.Status
			snapshot.LastUpdated = &latest.CreatedAt
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// NewRecentNewsHandler returns GET /news/recent handler.
func NewRecentNewsHandler(news NewsReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := news.Recent(r.Context(), recentNewsLimit)
		if err != nil {
			logger.Error("failed to read news", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch news")
			return
		}
		if items == nil {
			items = []models.NewsItem{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"news": items,
		})
	}
}

// NewRecentReportsHandler returns GET /reports/recent handler.
func NewRecentReportsHandler(reports ReportReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultReportsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxReportsLimit)
		}

		items, err := reports.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("failed to read reports", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch reports")
			return
		}
		if items == nil {
			items = []models.PowerReport{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reports": items,
		})
	}
}
