package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/changefeed"
	"gridpulse/backend/services/grid-service/internal/models"
)

// ReportCounter recomputes the aggregate report count.
type ReportCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Relay republishes change feed events on the hub.
type Relay struct {
	hub     *Hub
	reports ReportCounter
	logger  *zap.Logger
}

// NewRelay returns relay.
func NewRelay(hub *Hub, reports ReportCounter, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{hub: hub, reports: reports, logger: logger}
}

// Handle is a changefeed.Handler. Undecodable rows and count failures are logged and
// skipped; nothing is retried.
func (r *Relay) Handle(ctx context.Context, ev changefeed.Event) {
	out, err := r.translate(ctx, ev)
	if err != nil {
		r.logger.Warn("failed to relay change", zap.String("stream", string(ev.Stream)), zap.Error(err))
		return
	}
	n := r.hub.Publish(out)
	r.logger.Debug("change relayed", zap.String("stream", string(ev.Stream)), zap.Int("subscribers", n))
}

func (r *Relay) translate(ctx context.Context, ev changefeed.Event) (Event, error) {
	switch ev.Stream {
	case models.StreamTelemetry:
		var sample models.TelemetrySample
		if err := json.Unmarshal(ev.Payload, &sample); err != nil {
			return Event{}, fmt.Errorf("decode telemetry row: %w", err)
		}
		return Event{Stream: ev.Stream, Data: sample}, nil
	case models.StreamNews:
		var item models.NewsItem
		if err := json.Unmarshal(ev.Payload, &item); err != nil {
			return Event{}, fmt.Errorf("decode news row: %w", err)
		}
		return Event{Stream: ev.Stream, Data: item}, nil
	case models.StreamReports:
		count, err := r.reports.Count(ctx)
		if err != nil {
			return Event{}, fmt.Errorf("count reports: %w", err)
		}
		return Event{Stream: ev.Stream, Data: ReportsCount{Count: count}}, nil
	}
	return Event{}, fmt.Errorf("unknown stream %q", ev.Stream)
}
