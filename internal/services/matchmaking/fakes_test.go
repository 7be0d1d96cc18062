package matchmaking

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcoot/quizarena/internal/model"
)

type emitted struct {
	conn    model.ConnectionID
	event   model.EventType
	payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
	closed map[model.ConnectionID]bool
}

func (e *fakeEmitter) Emit(conn model.ConnectionID, event model.EventType, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed[conn] {
		return fmt.Errorf("emit %s: %w", conn, model.ErrConnectionClosed)
	}
	e.events = append(e.events, emitted{conn: conn, event: event, payload: payload})
	return nil
}

// close makes every later delivery to conn fail
func (e *fakeEmitter) close(conn model.ConnectionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed == nil {
		e.closed = make(map[model.ConnectionID]bool)
	}
	e.closed[conn] = true
}

// eventsFor returns the event types delivered to conn, in order
func (e *fakeEmitter) eventsFor(conn model.ConnectionID) []model.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.EventType
	for _, ev := range e.events {
		if ev.conn == conn {
			out = append(out, ev.event)
		}
	}
	return out
}

func (e *fakeEmitter) gameStart(conn model.ConnectionID) (model.GameStartPayload, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.conn == conn && ev.event == model.EventGameStart {
			return ev.payload.(model.GameStartPayload), true
		}
	}
	return model.GameStartPayload{}, false
}

func (e *fakeEmitter) gameEnd(conn model.ConnectionID) (model.GameEndPayload, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.conn == conn && ev.event == model.EventGameEnd {
			return ev.payload.(model.GameEndPayload), true
		}
	}
	return model.GameEndPayload{}, false
}

type fakeFetcher struct {
	mu     sync.Mutex
	err    error
	empty  bool
	gate   chan struct{}
	topics []model.TopicID
}

func (f *fakeFetcher) FetchContent(ctx context.Context, topic model.TopicID) (*model.Content, error) {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	gate, err, empty := f.gate, f.err, f.empty
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if empty {
		return &model.Content{Topic: model.Topic{ID: topic}}, nil
	}
	return &model.Content{
		Topic: model.Topic{ID: topic, Name: fmt.Sprintf("Topic %d", topic)},
		Questions: []model.Question{
			{ID: 1, TopicID: topic, Text: "2 + 2?", Options: []string{"3", "4"}, Answer: "4"},
		},
	}, nil
}

func (f *fakeFetcher) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

func (f *fakeFetcher) lastTopic() model.TopicID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.topics) == 0 {
		return 0
	}
	return f.topics[len(f.topics)-1]
}

type fakeRecorder struct {
	mu      sync.Mutex
	err     error
	results []*model.SessionResult
}

func (r *fakeRecorder) RecordOutcome(_ context.Context, result *model.SessionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *fakeRecorder) last() *model.SessionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return nil
	}
	return r.results[len(r.results)-1]
}
