package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizarena/internal/api/middleware"
	"github.com/mcoot/quizarena/internal/api/request"
	"github.com/mcoot/quizarena/internal/api/response"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/services/matchmaking"
)

// SessionHandler handles live session endpoints
type SessionHandler struct {
	orchestrator *matchmaking.Orchestrator
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(orchestrator *matchmaking.Orchestrator) *SessionHandler {
	return &SessionHandler{
		orchestrator: orchestrator,
	}
}

// SubmitScore handles POST /api/v1/sessions/{id}/score
func (h *SessionHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.SessionID(mux.Vars(r)["id"])

	var req request.SubmitScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Score == nil {
		WriteError(w, NewInvalidRequestError("score is required"))
		return
	}
	if req.SocketID == "" {
		WriteError(w, model.ErrMissingConnection)
		return
	}

	// The socket must belong to the caller's seat
	session, err := h.orchestrator.Session(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	conn := model.ConnectionID(req.SocketID)
	slot := session.SlotFor(user.ID)
	if slot < 0 || session.Players[slot].Connection != conn {
		WriteError(w, model.ErrUserNotInSession)
		return
	}

	if err := h.orchestrator.SubmitScore(r.Context(), conn, id, *req.Score); err != nil {
		WriteError(w, err)
		return
	}

	response.Accepted(w, "Score recorded")
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.SessionID(mux.Vars(r)["id"])

	session, err := h.orchestrator.Session(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if session.SlotFor(user.ID) < 0 {
		WriteError(w, model.ErrUserNotInSession)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}
