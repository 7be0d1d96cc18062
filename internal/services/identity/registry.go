// Package identity maps transport connections to authenticated users.
package identity

import "github.com/mcoot/quizarena/internal/model"

// Registry is a bidirectional connection <-> user map.
// A user is bound to at most one connection at a time.
//
// Registry is not safe for concurrent use; it is owned by the matchmaking loop.
type Registry struct {
	byConn map[model.ConnectionID]model.UserIdentity
	byUser map[model.UserID]model.ConnectionID
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[model.ConnectionID]model.UserIdentity),
		byUser: make(map[model.UserID]model.ConnectionID),
	}
}

// Bind associates conn with the identity, replacing any previous binding of
// either the connection or the user.
func (r *Registry) Bind(conn model.ConnectionID, id model.UserIdentity) {
	if prev, ok := r.byConn[conn]; ok {
		if r.byUser[prev.ID] == conn {
			delete(r.byUser, prev.ID)
		}
	}
	if prevConn, ok := r.byUser[id.ID]; ok && prevConn != conn {
		delete(r.byConn, prevConn)
	}
	r.byConn[conn] = id
	r.byUser[id.ID] = conn
}

// IdentityOf returns the identity bound to conn
func (r *Registry) IdentityOf(conn model.ConnectionID) (model.UserIdentity, bool) {
	id, ok := r.byConn[conn]
	return id, ok
}

// ConnectionOf returns the connection bound to the user
func (r *Registry) ConnectionOf(userID model.UserID) (model.ConnectionID, bool) {
	conn, ok := r.byUser[userID]
	return conn, ok
}

// Unbind removes conn and its user from the registry. Unknown connections are ignored.
func (r *Registry) Unbind(conn model.ConnectionID) {
	id, ok := r.byConn[conn]
	if !ok {
		return
	}
	delete(r.byConn, conn)
	if r.byUser[id.ID] == conn {
		delete(r.byUser, id.ID)
	}
}

// Len returns the number of bound connections
func (r *Registry) Len() int {
	return len(r.byConn)
}
