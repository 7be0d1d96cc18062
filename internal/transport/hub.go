// Package transport carries events between the matchmaking core and player
// connections over websockets and server-sent events.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/quizarena/internal/dependencies/clock"
	"github.com/mcoot/quizarena/internal/dependencies/random"
	"github.com/mcoot/quizarena/internal/model"
)

// Errors
var (
	ErrUnknownConnection = fmt.Errorf("unknown connection: %w", model.ErrConnectionClosed)
	ErrBufferFull        = errors.New("connection send buffer full")
)

// SessionHandler receives inbound player events
type SessionHandler interface {
	SubmitScore(ctx context.Context, conn model.ConnectionID, sessionID model.SessionID, score int) error
	NotifyDisconnect(ctx context.Context, conn model.ConnectionID) error
}

// Config holds per-connection limits and timings
type Config struct {
	// SendBuffer is the number of outbound frames queued per connection
	SendBuffer int
	// WriteWait is the time allowed to write a frame to the peer
	WriteWait time.Duration
	// PingPeriod is the interval between keepalives
	PingPeriod time.Duration
	// PongWait is how long a websocket peer may stay silent
	PongWait time.Duration
	// MaxMessageSize caps inbound websocket frames
	MaxMessageSize int64
	// MessagesPerSecond and MessageBurst rate limit inbound websocket frames
	MessagesPerSecond float64
	MessageBurst      int
	// HandlerTimeout bounds a single call into the SessionHandler
	HandlerTimeout time.Duration
}

// DefaultConfig returns default transport settings
func DefaultConfig() Config {
	return Config{
		SendBuffer:        64,
		WriteWait:         10 * time.Second,
		PingPeriod:        30 * time.Second,
		PongWait:          60 * time.Second,
		MaxMessageSize:    4096,
		MessagesPerSecond: 5,
		MessageBurst:      10,
		HandlerTimeout:    5 * time.Second,
	}
}

// envelope is the wire shape of every event
type envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks live connections and routes events to them
type Hub struct {
	cfg    Config
	random random.Random
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
	handler SessionHandler
}

// NewHub creates a new Hub
func NewHub(cfg Config, random random.Random, clock clock.Clock, logger *slog.Logger) *Hub {
	def := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = def.PingPeriod
	}
	if cfg.PongWait <= cfg.PingPeriod {
		cfg.PongWait = cfg.PingPeriod * 2
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = def.MessagesPerSecond
	}
	if cfg.MessageBurst <= 0 {
		cfg.MessageBurst = def.MessageBurst
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = def.HandlerTimeout
	}
	return &Hub{
		cfg:     cfg,
		random:  random,
		clock:   clock,
		logger:  logger.With(slog.String("component", "transport")),
		clients: make(map[model.ConnectionID]*Client),
	}
}

// Attach sets the handler for inbound events and disconnects
func (h *Hub) Attach(handler SessionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *Hub) sessionHandler() SessionHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// register creates a client with a fresh connection id
func (h *Hub) register(kind clientKind) *Client {
	client := &Client{
		id:          model.ConnectionID(h.random.UUID()),
		kind:        kind,
		send:        make(chan []byte, h.cfg.SendBuffer),
		connectedAt: h.clock.Now(),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("connection registered",
		slog.String("connection", string(client.id)),
		slog.String("kind", string(kind)),
		slog.Int("total_connections", count))
	return client
}

// unregister removes the client and tells the handler the connection is gone
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	count := len(h.clients)
	handler := h.handler
	h.mu.Unlock()

	h.logger.Info("connection unregistered",
		slog.String("connection", string(client.id)),
		slog.Duration("connection_duration", h.clock.Now().Sub(client.connectedAt)),
		slog.Int("total_connections", count))

	if handler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.HandlerTimeout)
	defer cancel()
	if err := handler.NotifyDisconnect(ctx, client.id); err != nil {
		h.logger.Warn("disconnect not delivered",
			slog.String("connection", string(client.id)),
			slog.String("error", err.Error()))
	}
}

// Emit queues an event for a single connection without blocking
func (h *Hub) Emit(conn model.ConnectionID, event model.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[conn]
	if !ok {
		return ErrUnknownConnection
	}
	select {
	case client.send <- client.frame(event, data):
		return nil
	default:
		h.logger.Warn("message dropped - client buffer full",
			slog.String("connection", string(conn)),
			slog.String("event", string(event)))
		return ErrBufferFull
	}
}

// Has reports whether the connection is live
func (h *Hub) Has(conn model.ConnectionID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[conn]
	return ok
}

// Claim records the user queueing on a connection. The first claim wins;
// later claims by another user fail with model.ErrConnectionInUse.
func (h *Hub) Claim(conn model.ConnectionID, user model.UserID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[conn]
	if !ok {
		return ErrUnknownConnection
	}
	switch client.owner {
	case 0:
		client.owner = user
	case user:
	default:
		h.logger.Warn("connection claimed by another user",
			slog.String("connection", string(conn)),
			slog.Int64("owner", int64(client.owner)),
			slog.Int64("user_id", int64(user)))
		return model.ErrConnectionInUse
	}
	return nil
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every connection. Their serve loops exit once the send channel closes.
func (h *Hub) Close() {
	h.mu.Lock()
	count := len(h.clients)
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.mu.Unlock()
	h.logger.Info("transport hub stopped", slog.Int("disconnected_clients", count))
}
