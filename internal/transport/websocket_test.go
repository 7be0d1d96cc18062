package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizarena/internal/dependencies/mocks"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/testutil"
)

func newTestHub(t *testing.T) (*Hub, *mocks.MockRandom, *fakeHandler) {
	t.Helper()
	random := mocks.NewMockRandom()
	handler := &fakeHandler{}
	hub := NewHub(DefaultConfig(), random, mocks.NewMockClock(time.Now()), testutil.NopLogger())
	hub.Attach(handler)
	return hub, random, handler
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebSocketSession(t *testing.T) {
	hub, random, handler := newTestHub(t)
	random.QueueUUID("ws-1")
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	connected := readEnvelope(t, conn)
	assert.Equal(t, model.EventConnected, connected.Event)
	var payload model.ConnectedPayload
	require.NoError(t, json.Unmarshal(connected.Data, &payload))
	assert.Equal(t, model.ConnectionID("ws-1"), payload.SocketID)
	assert.True(t, hub.Has("ws-1"))

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "ping"}))
	assert.Equal(t, model.EventPong, readEnvelope(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": "game_end",
		"data":  map[string]any{"gameId": "g1", "score": 4},
	}))
	require.Eventually(t, func() bool { return len(handler.submitted()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, submission{conn: "ws-1", session: "g1", score: 4}, handler.submitted()[0])

	require.NoError(t, hub.Emit("ws-1", model.EventQueued, model.QueuedPayload{Message: "wait"}))
	assert.Equal(t, model.EventQueued, readEnvelope(t, conn).Event)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.Has("ws-1") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []model.ConnectionID{"ws-1"}, handler.disconnects())
}

func TestWebSocketRateLimit(t *testing.T) {
	random := mocks.NewMockRandom()
	cfg := DefaultConfig()
	cfg.MessagesPerSecond = 0.001
	cfg.MessageBurst = 1
	hub := NewHub(cfg, random, mocks.NewMockClock(time.Now()), testutil.NopLogger())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	readEnvelope(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "ping"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"event": "ping"}))

	assert.Equal(t, model.EventPong, readEnvelope(t, conn).Event)
	limited := readEnvelope(t, conn)
	assert.Equal(t, model.EventError, limited.Event)
	var payload model.ErrorPayload
	require.NoError(t, json.Unmarshal(limited.Data, &payload))
	assert.Equal(t, errRateLimited.Error(), payload.Message)
}

func TestSSEStream(t *testing.T) {
	hub, random, handler := newTestHub(t)
	random.QueueUUID("sse-1")
	server := httptest.NewServer(http.HandlerFunc(hub.ServeSSE))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				if event != "" {
					return event, data
				}
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data += strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, data := readEvent()
	assert.Equal(t, "connected", event)
	assert.JSONEq(t, `{"socketId":"sse-1"}`, data)

	require.NoError(t, hub.Emit("sse-1", model.EventQueued, model.QueuedPayload{Message: "wait"}))
	event, data = readEvent()
	assert.Equal(t, "queued", event)
	assert.JSONEq(t, `{"message":"wait"}`, data)

	cancel()
	assert.Eventually(t, func() bool { return !hub.Has("sse-1") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []model.ConnectionID{"sse-1"}, handler.disconnects())
}
