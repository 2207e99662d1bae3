package httpserver

import "net/http"

// Routes defines HTTP endpoints. Nil handlers are not mounted.
type Routes struct {
	TriggerTelemetry http.Handler
	TriggerNews      http.Handler
	Snapshot         http.Handler
	RecentNews       http.Handler
	RecentReports    http.Handler
	Subscribe        http.Handler
	Health           http.Handler
	Metrics          http.Handler
}

// NewRouter sets up HTTP routing. limit wraps the manual trigger endpoints.
func NewRouter(routes Routes, limit func(http.Handler) http.Handler) http.Handler {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}

	mux := http.NewServeMux()
	if routes.TriggerTelemetry != nil {
		mux.Handle("/ingest/telemetry", method(http.MethodPost, limit(routes.TriggerTelemetry).ServeHTTP))
	}
	if routes.TriggerNews != nil {
		mux.Handle("/ingest/news", method(http.MethodPost, limit(routes.TriggerNews).ServeHTTP))
	}
	if routes.Snapshot != nil {
		mux.Handle("/grid/snapshot", method(http.MethodGet, routes.Snapshot.ServeHTTP))
	}
	if routes.RecentNews != nil {
		mux.Handle("/news/recent", method(http.MethodGet, routes.RecentNews.ServeHTTP))
	}
	if routes.RecentReports != nil {
		mux.Handle("/reports/recent", method(http.MethodGet, routes.RecentReports.ServeHTTP))
	}
	if routes.Subscribe != nil {
		mux.Handle("/ws", method(http.MethodGet, routes.Subscribe.ServeHTTP))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health.ServeHTTP))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics.ServeHTTP))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
