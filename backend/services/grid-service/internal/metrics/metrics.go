// Package metrics exposes ingestion and notification counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridpulse/backend/services/grid-service/internal/models"
)

const namespace = "grid"

// Metrics implements ingest.Recorder and notify.Observer over a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	telemetry    *prometheus.GaugeVec
	emptySamples prometheus.Counter
	delivered    *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	subscribers  prometheus.Gauge
	exported     *prometheus.CounterVec
}

// New registers every collector, plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "ingest", Name: "runs_total", Help: "Ingestion runs by stream and outcome."},
			[]string{"stream", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Subsystem: "ingest", Name: "run_duration_seconds", Help: "Ingestion run latency.", Buckets: prometheus.DefBuckets},
			[]string{"stream"},
		),
		telemetry: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "telemetry", Name: "value", Help: "Latest extracted telemetry value per field."},
			[]string{"field"},
		),
		emptySamples: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "telemetry", Name: "empty_samples_total", Help: "Samples persisted with no extracted field."},
		),
		delivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "notify", Name: "delivered_total", Help: "Events handed to subscribers."},
			[]string{"stream"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "notify", Name: "dropped_total", Help: "Events dropped on full subscriber buffers."},
			[]string{"stream"},
		),
		subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "notify", Name: "subscribers", Help: "Registered live subscribers."},
		),
		exported: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "export", Name: "messages_total", Help: "Events written to the export topic by result."},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.runs, m.runDuration, m.telemetry, m.emptySamples,
		m.delivered, m.dropped, m.subscribers, m.exported,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records one ingestion attempt.
func (m *Metrics) ObserveRun(stream models.Stream, outcome string, duration time.Duration) {
	m.runs.WithLabelValues(string(stream), outcome).Inc()
	m.runDuration.WithLabelValues(string(stream)).Observe(duration.Seconds())
}

// ObserveTelemetry publishes the latest extracted values. Missing fields keep their
// previous gauge value.
func (m *Metrics) ObserveTelemetry(sample *models.TelemetrySample) {
	if sample == nil {
		return
	}
	if sample.Empty() {
		m.emptySamples.Inc()
		return
	}
	if sample.GenerationMW != nil {
		m.telemetry.WithLabelValues("generation_mw").Set(*sample.GenerationMW)
	}
	if sample.FrequencyHz != nil {
		m.telemetry.WithLabelValues("frequency_hz").Set(*sample.FrequencyHz)
	}
	if sample.LoadPercent != nil {
		m.telemetry.WithLabelValues("load_percent").Set(*sample.LoadPercent)
	}
}

func (m *Metrics) Delivered(stream models.Stream) { m.delivered.WithLabelValues(string(stream)).Inc() }
func (m *Metrics) Dropped(stream models.Stream)   { m.dropped.WithLabelValues(string(stream)).Inc() }
func (m *Metrics) Subscribers(n int)              { m.subscribers.Set(float64(n)) }

// Exported counts export writes; ok=false means the write failed.
func (m *Metrics) Exported(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.exported.WithLabelValues(result).Inc()
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
