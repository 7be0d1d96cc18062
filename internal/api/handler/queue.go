package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/quizarena/internal/api/middleware"
	"github.com/mcoot/quizarena/internal/api/request"
	"github.com/mcoot/quizarena/internal/api/response"
	"github.com/mcoot/quizarena/internal/dependencies/clock"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/services/matchmaking"
	"github.com/mcoot/quizarena/internal/transport"
)

const (
	queuedMessage = "Joined the matchmaking queue"
	leftMessage   = "Left the matchmaking queue"
)

// QueueHandler handles matchmaking queue endpoints
type QueueHandler struct {
	orchestrator *matchmaking.Orchestrator
	hub          *transport.Hub
	clock        clock.Clock
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(orchestrator *matchmaking.Orchestrator, hub *transport.Hub, clock clock.Clock) *QueueHandler {
	return &QueueHandler{
		orchestrator: orchestrator,
		hub:          hub,
		clock:        clock,
	}
}

// Join handles GET|POST /api/v1/queue/join?socketId=
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	conn, err := h.connection(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.hub.Claim(conn, user.ID); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.orchestrator.JoinQueue(r.Context(), conn, *user); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: queuedMessage})
}

// Leave handles GET|POST /api/v1/queue/leave?socketId=
func (h *QueueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	conn, err := h.connection(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.orchestrator.LeaveQueue(r.Context(), conn, user.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: leftMessage})
}

// Status handles GET /api/v1/matchmaking/status
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.orchestrator.Status(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchmakingStatusFromModel(status, h.hub.Count(), h.clock.Now()))
}

// connection reads the socket id from the query or JSON body and checks it is live
func (h *QueueHandler) connection(r *http.Request) (model.ConnectionID, error) {
	id := strings.TrimSpace(r.URL.Query().Get("socketId"))
	if id == "" && r.Body != nil && r.ContentLength != 0 {
		var req request.QueueRequest
		if err := decodeJSON(r, &req); err == nil {
			id = strings.TrimSpace(req.SocketID)
		}
	}

	conn := model.ConnectionID(id)
	if conn == "" || !h.hub.Has(conn) {
		return "", model.ErrMissingConnection
	}
	return conn, nil
}
