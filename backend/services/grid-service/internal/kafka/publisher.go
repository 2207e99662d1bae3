// Package kafka exports hub notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/notify"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter builds a synchronous writer for topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Publisher copies every hub event to the topic, keyed by stream so each stream keeps
// its order within a partition.
type Publisher struct {
	writer   MessageWriter
	hub      *notify.Hub
	logger   *zap.Logger
	onResult func(ok bool)
}

// NewPublisher returns publisher. onResult may be nil.
func NewPublisher(writer MessageWriter, hub *notify.Hub, logger *zap.Logger, onResult func(ok bool)) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: writer, hub: hub, logger: logger, onResult: onResult}
}

// Run subscribes to every stream and blocks until ctx is done or the hub closes.
// Write failures are logged and the event is not retried.
func (p *Publisher) Run(ctx context.Context) error {
	sub := p.hub.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			err := p.publish(ctx, ev)
			if err != nil {
				p.logger.Warn("failed to export event", zap.String("stream", string(ev.Stream)), zap.Error(err))
			}
			if p.onResult != nil {
				p.onResult(err == nil)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ev notify.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.Stream),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
