package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/notify"
)

const maxInboundMessage = 4 * 1024

// Connection streams one hub subscription to one websocket client. Only the write pump
// writes to the socket.
type Connection struct {
	ws           *websocket.Conn
	sub          *notify.Subscription
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onClose      func(id string)
}

// NewConnection builds connection wrapper.
func NewConnection(ws *websocket.Conn, sub *notify.Subscription, writeTimeout, pingInterval time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		ws:           ws,
		sub:          sub,
		logger:       logger.With(zap.String("subscriber_id", sub.ID())),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		onClose:      onClose,
	}
}

// ID returns the subscription identifier.
func (c *Connection) ID() string {
	return c.sub.ID()
}

// Start launches the pumps and blocks until the client goes away.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump only drains control frames; clients have nothing to say.
func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	pongWait := 2 * c.pingInterval
	c.ws.SetReadLimit(maxInboundMessage)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("subscriber read closed", zap.Error(err))
			return
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case ev, ok := <-c.sub.Events():
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			msg, err := json.Marshal(ev)
			if err != nil {
				c.logger.Warn("failed to encode event", zap.String("stream", string(ev.Stream)), zap.Error(err))
				continue
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("subscriber write failed", zap.Error(err))
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	c.sub.Close()
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c.ID())
	}
}
