// Package notify fans persisted records out to live subscribers.
package notify

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/models"
)

const defaultBuffer = 32

// Event is one notification. Data is a models.TelemetrySample, models.NewsItem or
// ReportsCount depending on Stream.
type Event struct {
	Stream models.Stream `json:"stream"`
	Data   any           `json:"data"`
}

// ReportsCount is published whenever the power report table changes.
type ReportsCount struct {
	Count int64 `json:"count"`
}

// Observer is told about deliveries and drops.
type Observer interface {
	Delivered(stream models.Stream)
	Dropped(stream models.Stream)
	Subscribers(n int)
}

// Subscription is one registered listener.
type Subscription struct {
	id      string
	streams map[models.Stream]bool
	ch      chan Event
	hub     *Hub
	once    sync.Once
}

// ID is unique per subscription.
func (s *Subscription) ID() string { return s.id }

// Events is closed after Close or Hub.Close.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Wants reports whether the subscription listens to stream.
func (s *Subscription) Wants(stream models.Stream) bool { return s.streams[stream] }

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub is the subscription registry. Publish holds a single lock for the whole fan-out,
// so every subscriber sees events in publish order.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	publishMu sync.Mutex

	buffer   int
	observer Observer
	logger   *zap.Logger
}

// NewHub builds a hub whose subscriptions buffer up to buffer events each.
func NewHub(buffer int, observer Observer, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:     make(map[string]*Subscription),
		buffer:   buffer,
		observer: observer,
		logger:   logger,
	}
}

// Subscribe registers a listener for streams; no streams means every stream.
func (h *Hub) Subscribe(streams ...models.Stream) *Subscription {
	if len(streams) == 0 {
		streams = models.AllStreams
	}
	sub := &Subscription{
		id:      uuid.NewString(),
		streams: make(map[models.Stream]bool, len(streams)),
		ch:      make(chan Event, h.buffer),
		hub:     h,
	}
	for _, s := range streams {
		sub.streams[s] = true
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("subscriber registered", zap.String("id", sub.id), zap.Int("subscribers", n))
	if h.observer != nil {
		h.observer.Subscribers(n)
	}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		_, ok := h.subs[sub.id]
		if ok {
			delete(h.subs, sub.id)
			close(sub.ch)
		}
		n := len(h.subs)
		h.mu.Unlock()

		if ok && h.observer != nil {
			h.observer.Subscribers(n)
		}
	})
}

// Publish delivers ev to every interested subscriber without blocking. A subscriber whose
// buffer is full misses the event. It returns how many subscribers received it.
func (h *Hub) Publish(ev Event) int {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if !sub.streams[ev.Stream] {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
			if h.observer != nil {
				h.observer.Delivered(ev.Stream)
			}
		default:
			h.logger.Warn("subscriber buffer full, dropping event",
				zap.String("id", sub.id), zap.String("stream", string(ev.Stream)))
			if h.observer != nil {
				h.observer.Dropped(ev.Stream)
			}
		}
	}
	return delivered
}

// Len returns the number of registered subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unregisters everyone and rejects later subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.Subscribers(0)
	}
}
