// Package ws pushes hub notifications to browser subscribers over websockets.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/models"
	"gridpulse/backend/services/grid-service/internal/notify"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Server upgrades HTTP connections and subscribes them to the hub.
type Server struct {
	hub          *notify.Hub
	manager      *Manager
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server. Non-positive durations use defaults.
func NewServer(hub *notify.Hub, manager *Manager, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		hub:          hub,
		manager:      manager,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS serves GET /ws?streams=telemetry,news,reports. Omitted streams mean all.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	streams := models.ParseStreams(r.URL.Query().Get("streams"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := s.hub.Subscribe(streams...)
	ctx, cancel := context.WithCancel(context.Background())
	connection := NewConnection(conn, sub, s.writeTimeout, s.pingInterval, s.logger, func(id string) {
		s.manager.Remove(id)
		cancel()
	})
	s.manager.Add(connection)

	go connection.Start(ctx)
	s.logger.Info("subscriber connected", zap.String("subscriber_id", sub.ID()), zap.Any("streams", streams))
}
