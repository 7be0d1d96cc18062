package matchmaking

import (
	"github.com/mcoot/quizarena/internal/dependencies/clock"
	"github.com/mcoot/quizarena/internal/model"
)

type sessionEntry struct {
	session  *model.Session
	deadline clock.Timer
}

// sessionTable tracks live sessions and which connections are playing in them
type sessionTable struct {
	byID   map[model.SessionID]*sessionEntry
	byConn map[model.ConnectionID]model.SessionID
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		byID:   make(map[model.SessionID]*sessionEntry),
		byConn: make(map[model.ConnectionID]model.SessionID),
	}
}

func (t *sessionTable) add(session *model.Session, deadline clock.Timer) {
	t.byID[session.ID] = &sessionEntry{session: session, deadline: deadline}
	for _, p := range session.Players {
		t.byConn[p.Connection] = session.ID
	}
}

func (t *sessionTable) get(id model.SessionID) (*sessionEntry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// forConnection returns the session the connection is playing in
func (t *sessionTable) forConnection(conn model.ConnectionID) (*sessionEntry, bool) {
	id, ok := t.byConn[conn]
	if !ok {
		return nil, false
	}
	return t.get(id)
}

func (t *sessionTable) remove(id model.SessionID) {
	e, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byID, id)
	for _, p := range e.session.Players {
		if t.byConn[p.Connection] == id {
			delete(t.byConn, p.Connection)
		}
	}
}

func (t *sessionTable) len() int {
	return len(t.byID)
}

// stopAll cancels every deadline timer
func (t *sessionTable) stopAll() {
	for _, e := range t.byID {
		if e.deadline != nil {
			e.deadline.Stop()
		}
	}
}
