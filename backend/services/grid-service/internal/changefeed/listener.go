// Package changefeed turns Postgres NOTIFY messages into typed change events.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/models"
)

// Notification channels written by the schema triggers.
const (
	ChannelTelemetry = "grid_data_changes"
	ChannelNews      = "grid_news_changes"
	ChannelReports   = "power_reports_changes"
)

const (
	OpInsert = "INSERT"

	defaultReconnectDelay = 5 * time.Second
)

var channelStreams = map[string]models.Stream{
	ChannelTelemetry: models.StreamTelemetry,
	ChannelNews:      models.StreamNews,
	ChannelReports:   models.StreamReports,
}

// Channels lists every channel the listener subscribes to.
var Channels = []string{ChannelTelemetry, ChannelNews, ChannelReports}

// Event is one observed table write.
type Event struct {
	Stream models.Stream
	Op     string
	// Payload is the inserted row for telemetry and news; empty for reports.
	Payload json.RawMessage
}

// Decode maps a notification to an Event.
func Decode(channel, payload string) (Event, error) {
	stream, ok := channelStreams[channel]
	if !ok {
		return Event{}, fmt.Errorf("changefeed: unknown channel %q", channel)
	}

	if stream == models.StreamReports {
		var body struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal([]byte(payload), &body); err != nil {
			return Event{}, fmt.Errorf("changefeed: decode %s payload: %w", channel, err)
		}
		return Event{Stream: stream, Op: body.Op}, nil
	}

	if !json.Valid([]byte(payload)) {
		return Event{}, fmt.Errorf("changefeed: %s payload is not json", channel)
	}
	return Event{Stream: stream, Op: OpInsert, Payload: json.RawMessage(payload)}, nil
}

// Conn is the subset of *pgx.Conn used for LISTEN.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Connector opens a fresh listening connection.
type Connector func(ctx context.Context) (Conn, error)

// PgxConnector adapts a *pgx.Conn constructor to a Connector.
func PgxConnector(open func(ctx context.Context) (*pgx.Conn, error)) Connector {
	return func(ctx context.Context) (Conn, error) {
		conn, err := open(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Handler receives events in the order the database delivered them.
type Handler func(ctx context.Context, ev Event)

// Listener keeps one connection subscribed to the change channels and reconnects after
// a fixed delay when it drops.
type Listener struct {
	connect        Connector
	handler        Handler
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// NewListener builds a listener. A non-positive delay uses the default.
func NewListener(connect Connector, handler Handler, reconnectDelay time.Duration, logger *zap.Logger) *Listener {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		connect:        connect,
		handler:        handler,
		reconnectDelay: reconnectDelay,
		logger:         logger,
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("change feed connection lost", zap.Error(err), zap.Duration("retry_in", l.reconnectDelay))

		timer := time.NewTimer(l.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Listener) session(ctx context.Context) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	for _, ch := range Channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return fmt.Errorf("listen %s: %w", ch, err)
		}
	}
	l.logger.Info("change feed listening", zap.Strings("channels", Channels))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := Decode(n.Channel, n.Payload)
		if err != nil {
			l.logger.Warn("dropping change notification", zap.Error(err))
			continue
		}
		l.handler(ctx, ev)
	}
}
