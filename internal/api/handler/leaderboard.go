package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizarena/internal/api/response"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/services/content"
	"github.com/mcoot/quizarena/internal/services/leaderboard"
)

// LeaderboardHandler serves standings, recorded results and topics
type LeaderboardHandler struct {
	leaderboard leaderboard.ServiceInterface
	content     content.ServiceInterface
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard leaderboard.ServiceInterface, content content.ServiceInterface) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		content:     content,
	}
}

// Leaderboard handles GET /api/v1/leaderboard?limit=
func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}

// Result handles GET /api/v1/results/{id}
func (h *LeaderboardHandler) Result(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["id"])

	result, err := h.leaderboard.Result(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResultFromModel(result))
}

// Topics handles GET /api/v1/topics
func (h *LeaderboardHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.content.Topics(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TopicsFromModel(topics))
}
