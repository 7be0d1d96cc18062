package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/quizarena/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// ServeWS upgrades the request and serves a websocket connection until either side closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := h.register(kindWebSocket)
	_ = h.Emit(client.id, model.EventConnected, model.ConnectedPayload{SocketID: client.id})

	go h.writePump(conn, client)
	h.readPump(r.Context(), conn, client)
}

// writePump drains the client's send channel onto the socket.
// It exits when the hub closes the channel or a write fails.
func (h *Hub) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump dispatches inbound frames and unregisters the client when the socket closes
func (h *Hub) readPump(ctx context.Context, conn *websocket.Conn, client *Client) {
	defer func() {
		h.unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSecond), h.cfg.MessageBurst)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed unexpectedly",
					slog.String("connection", string(client.id)),
					slog.String("error", err.Error()))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		if !limiter.Allow() {
			h.reject(client.id, errRateLimited)
			continue
		}
		h.dispatch(ctx, client.id, message)
	}
}

var (
	errRateLimited  = errors.New("too many messages")
	errMalformed    = errors.New("malformed message")
	errUnknownEvent = errors.New("unknown event")
	errNoHandler    = errors.New("server is not accepting events")
)

// dispatch routes one inbound envelope
func (h *Hub) dispatch(ctx context.Context, conn model.ConnectionID, message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		h.reject(conn, errMalformed)
		return
	}

	switch env.Event {
	case model.EventPing:
		_ = h.Emit(conn, model.EventPong, struct{}{})

	case model.EventSubmitScore:
		var payload model.SubmitScorePayload
		if len(env.Data) == 0 || json.Unmarshal(env.Data, &payload) != nil {
			h.reject(conn, errMalformed)
			return
		}
		handler := h.sessionHandler()
		if handler == nil {
			h.reject(conn, errNoHandler)
			return
		}
		ctx, cancel := context.WithTimeout(ctx, h.cfg.HandlerTimeout)
		defer cancel()
		if err := handler.SubmitScore(ctx, conn, payload.GameID, payload.Score); err != nil {
			h.logger.Debug("score rejected",
				slog.String("connection", string(conn)),
				slog.String("session", string(payload.GameID)),
				slog.String("error", err.Error()))
			h.reject(conn, err)
		}

	default:
		h.reject(conn, errUnknownEvent)
	}
}

func (h *Hub) reject(conn model.ConnectionID, err error) {
	_ = h.Emit(conn, model.EventError, model.ErrorPayload{Message: err.Error()})
}
