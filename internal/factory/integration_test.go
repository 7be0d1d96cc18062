package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizarena/internal/api"
	"github.com/mcoot/quizarena/internal/api/apierr"
	"github.com/mcoot/quizarena/internal/api/response"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	ctx    context.Context
	cancel context.CancelFunc
	server *httptest.Server
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Require().NoError(s.app.LoadTestContent(s.ctx))

	go func() { _ = s.app.Orchestrator.Run(s.ctx) }()

	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:             testutil.NopLogger(),
		Clock:              s.app.Clock,
		AuthService:        s.app.AuthService,
		Orchestrator:       s.app.Orchestrator,
		Hub:                s.app.Hub,
		LeaderboardService: s.app.LeaderboardService,
		ContentService:     s.app.ContentService,
	}))
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Hub.Close()
	s.server.Close()
	s.cancel()
	<-s.app.Orchestrator.Done()
}

// player is a logged-in user with a live websocket
type player struct {
	id     model.UserID
	token  string
	socket model.ConnectionID
	conn   *websocket.Conn
}

func (s *IntegrationSuite) do(method, path, token string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *IntegrationSuite) decode(resp *http.Response, v any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *IntegrationSuite) connect(name string) *player {
	resp := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    name + "@example.com",
		"password": "password123",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var auth response.AuthResponse
	s.decode(resp, &auth)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	p := &player{id: model.UserID(auth.User.ID), token: auth.Token, conn: conn}
	var connected model.ConnectedPayload
	s.expect(p, model.EventConnected, &connected)
	p.socket = connected.SocketID
	return p
}

// expect reads the next event and checks its type
func (s *IntegrationSuite) expect(p *player, event model.EventType, payload any) {
	s.Require().NoError(p.conn.SetReadDeadline(time.Now().Add(waitFor)))
	var env struct {
		Event model.EventType `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	s.Require().NoError(p.conn.ReadJSON(&env))
	s.Require().Equal(event, env.Event, "payload: %s", string(env.Data))
	if payload != nil {
		s.Require().NoError(json.Unmarshal(env.Data, payload))
	}
}

func (s *IntegrationSuite) join(p *player) {
	resp := s.do(http.MethodPost, "/api/v1/queue/join?socketId="+string(p.socket), p.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.expect(p, model.EventQueued, nil)
}

func (s *IntegrationSuite) submit(p *player, session model.SessionID, score int) {
	s.Require().NoError(p.conn.WriteJSON(map[string]any{
		"event": "game_end",
		"data":  map[string]any{"gameId": session, "score": score},
	}))
}

func (s *IntegrationSuite) startMatch() (*player, *player, model.SessionID) {
	alice := s.connect("alice")
	bob := s.connect("bob")
	s.join(alice)
	s.join(bob)

	var startA, startB model.GameStartPayload
	s.expect(alice, model.EventGameStart, &startA)
	s.expect(bob, model.EventGameStart, &startB)
	s.Equal(startA.GameID, startB.GameID)
	s.NotEmpty(startA.Questions)
	return alice, bob, startA.GameID
}

func (s *IntegrationSuite) waitForSubmission(session model.SessionID, slot int) {
	s.Require().Eventually(func() bool {
		live, err := s.app.Orchestrator.Session(s.ctx, session)
		return err == nil && live.Players[slot].Submitted
	}, waitFor, tick)
}

func (s *IntegrationSuite) leaderboard() response.LeaderboardResponse {
	resp := s.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var board response.LeaderboardResponse
	s.decode(resp, &board)
	return board
}

func (s *IntegrationSuite) waitForResult(session model.SessionID) response.Result {
	var result response.Result
	s.Require().Eventually(func() bool {
		resp := s.do(http.MethodGet, "/api/v1/results/"+string(session), "", nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		s.decode(resp, &result)
		return true
	}, waitFor, tick)
	return result
}

// Test: Complete match from login to leaderboard
func (s *IntegrationSuite) TestCompleteMatchFlow() {
	s.app.MockRandom.QueueIntn(2) // topic 3

	alice := s.connect("alice")
	bob := s.connect("bob")
	s.join(alice)
	s.join(bob)

	var start model.GameStartPayload
	s.expect(alice, model.EventGameStart, &start)
	s.expect(bob, model.EventGameStart, nil)
	s.Equal(model.TopicID(3), start.Topic.ID)
	s.Equal("Game started!", start.Message)
	s.Equal(s.app.MockClock.Now().Add(135*time.Second).UnixMilli(), start.Deadline)

	// Live session is visible to its players only
	resp := s.do(http.MethodGet, "/api/v1/sessions/"+string(start.GameID), alice.token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	s.submit(alice, start.GameID, 8)
	s.submit(bob, start.GameID, 5)

	var end model.GameEndPayload
	s.expect(alice, model.EventGameEnd, &end)
	s.expect(bob, model.EventGameEnd, nil)
	s.Equal(model.OutcomePlayer1Win, end.Outcome)
	s.Equal(model.FinishBothSubmitted, end.Reason)
	s.Equal([2]int{8, 5}, end.Scores)

	result := s.waitForResult(start.GameID)
	s.Equal("player1_win", result.Outcome)
	s.Require().NotNil(result.Winner)
	s.Equal(int64(alice.id), *result.Winner)

	board := s.leaderboard()
	s.Require().Len(board.Entries, 2)
	s.Equal("alice", board.Entries[0].Username)
	s.Equal(3, board.Entries[0].Points)
	s.Equal(1, board.Entries[1].Losses)
}

// Test: Deadline ends a match with only one score in
func (s *IntegrationSuite) TestDeadlineFinalizes() {
	alice, bob, session := s.startMatch()

	s.submit(bob, session, 4)
	s.waitForSubmission(session, 1)

	s.app.MockClock.Advance(135 * time.Second)

	var end model.GameEndPayload
	s.expect(alice, model.EventGameEnd, &end)
	s.Equal(model.FinishDeadline, end.Reason)
	s.Equal(model.OutcomePlayer2Win, end.Outcome)

	s.Equal("player2_win", s.waitForResult(session).Outcome)
}

// Test: A dropped socket forfeits the match immediately
func (s *IntegrationSuite) TestDisconnectFinalizes() {
	alice, bob, session := s.startMatch()

	s.submit(alice, session, 2)
	s.waitForSubmission(session, 0)
	s.Require().NoError(bob.conn.Close())

	var end model.GameEndPayload
	s.expect(alice, model.EventGameEnd, &end)
	s.Equal(model.FinishDisconnect, end.Reason)
	s.Equal(model.OutcomePlayer1Win, end.Outcome)
}

// Test: Scores may also be submitted over HTTP
func (s *IntegrationSuite) TestSubmitScoreOverHTTP() {
	alice, bob, session := s.startMatch()
	path := fmt.Sprintf("/api/v1/sessions/%s/score", session)

	// Someone else's socket is rejected
	resp := s.do(http.MethodPost, path, alice.token, map[string]any{"socketId": bob.socket, "score": 3})
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodPost, path, alice.token, map[string]any{"socketId": alice.socket, "score": -1})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, path, alice.token, map[string]any{"socketId": alice.socket, "score": 3})
	s.Equal(http.StatusAccepted, resp.StatusCode)
	resp = s.do(http.MethodPost, path, bob.token, map[string]any{"socketId": bob.socket, "score": 3})
	s.Equal(http.StatusAccepted, resp.StatusCode)

	var end model.GameEndPayload
	s.expect(alice, model.EventGameEnd, &end)
	s.Equal(model.OutcomeTie, end.Outcome)

	s.waitForResult(session)
	for _, e := range s.leaderboard().Entries {
		s.Equal(1, e.Points)
		s.Equal(1, e.Draws)
	}
}

// Test: Players cannot queue again mid-match but can after it ends
func (s *IntegrationSuite) TestRequeueRules() {
	alice, bob, session := s.startMatch()

	resp := s.do(http.MethodPost, "/api/v1/queue/join?socketId="+string(alice.socket), alice.token, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/queue/leave?socketId="+string(alice.socket), alice.token, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)

	s.submit(alice, session, 1)
	s.submit(bob, session, 1)
	s.expect(alice, model.EventGameEnd, nil)
	s.expect(bob, model.EventGameEnd, nil)

	s.join(alice)
	resp = s.do(http.MethodPost, "/api/v1/queue/leave?socketId="+string(alice.socket), alice.token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

// Test: A socket can only queue the user who first queued on it
func (s *IntegrationSuite) TestJoinWithAnotherUsersSocketRejected() {
	alice := s.connect("alice")
	bob := s.connect("bob")
	s.join(alice)

	resp := s.do(http.MethodPost, "/api/v1/queue/join?socketId="+string(alice.socket), bob.token, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	var body apierr.ErrorResponse
	s.decode(resp, &body)
	s.Equal(apierr.CodeConnectionInUse, body.Error.Code)

	s.join(bob)
	s.expect(alice, model.EventGameStart, nil)
	s.expect(bob, model.EventGameStart, nil)
}

// Test: A socket id that is not connected cannot queue
func (s *IntegrationSuite) TestJoinRequiresLiveSocket() {
	alice := s.connect("alice")

	resp := s.do(http.MethodPost, "/api/v1/queue/join?socketId=nope", alice.token, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/queue/join?socketId="+string(alice.socket), "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
