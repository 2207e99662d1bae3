package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/http/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRouterMethods(t *testing.T) {
	router := NewRouter(Routes{
		TriggerTelemetry: okHandler(),
		TriggerNews:      okHandler(),
		Snapshot:         okHandler(),
		Health:           okHandler(),
	}, nil)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/ingest/telemetry", http.StatusOK},
		{http.MethodGet, "/ingest/telemetry", http.StatusMethodNotAllowed},
		{http.MethodPost, "/ingest/news", http.StatusOK},
		{http.MethodGet, "/grid/snapshot", http.StatusOK},
		{http.MethodDelete, "/grid/snapshot", http.StatusMethodNotAllowed},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/news/recent", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

func TestRouterRateLimitsTriggersOnly(t *testing.T) {
	limit := middleware.RateLimit(middleware.NewLimiter(0.001, 1), zap.NewNop())
	router := NewRouter(Routes{
		TriggerNews: okHandler(),
		Health:      okHandler(),
	}, limit)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/news", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("trigger codes = %v", codes)
	}

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health limited: %d", rec.Code)
		}
	}
}

func TestLimiterDisabled(t *testing.T) {
	limiter := middleware.NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !limiter.Allow() {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}
