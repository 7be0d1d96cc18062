package matchmaking

import (
	"context"
	"log/slog"

	"github.com/mcoot/quizarena/internal/model"
)

// SubmitScore records the final score of the player on conn. A resubmission
// overwrites the earlier score. The session finishes once both players have
// submitted or the deadline has passed.
func (o *Orchestrator) SubmitScore(ctx context.Context, conn model.ConnectionID, sessionID model.SessionID, score int) error {
	if score < 0 {
		return model.ErrInvalidScore
	}

	var err error
	if loopErr := o.do(ctx, func() { err = o.submit(conn, sessionID, score) }); loopErr != nil {
		return loopErr
	}
	if err != nil {
		o.logger.Debug("ignored score submission",
			slog.String("connection", string(conn)),
			slog.String("session_id", string(sessionID)),
			slog.String("error", err.Error()))
	}
	return err
}

func (o *Orchestrator) submit(conn model.ConnectionID, sessionID model.SessionID, score int) error {
	entry, ok := o.sessions.get(sessionID)
	if !ok || !entry.session.IsOpen() {
		return model.ErrSessionNotFound
	}
	session := entry.session

	id, bound := o.registry.IdentityOf(conn)
	if !bound {
		return model.ErrUserNotInSession
	}
	slot := session.SlotFor(id.ID)
	if slot < 0 || session.Players[slot].Connection != conn {
		return model.ErrUserNotInSession
	}

	session.Players[slot].Score = score
	session.Players[slot].Submitted = true

	o.logger.Info("score submitted",
		slog.String("session_id", string(sessionID)),
		slog.Int64("user_id", int64(id.ID)),
		slog.Int("score", score))

	switch {
	case session.BothSubmitted():
		o.finalize(entry, model.FinishBothSubmitted)
	case session.Expired(o.clock.Now()):
		o.finalize(entry, model.FinishDeadline)
	}
	return nil
}

// expire is invoked by a session's deadline timer
func (o *Orchestrator) expire(sessionID model.SessionID) {
	entry, ok := o.sessions.get(sessionID)
	if !ok || !entry.session.IsOpen() {
		return
	}
	if !entry.session.Expired(o.clock.Now()) {
		return
	}
	o.finalize(entry, model.FinishDeadline)
}

// NotifyDisconnect releases everything held by conn. A player who drops out of
// an open session finishes it immediately with the scores recorded so far.
func (o *Orchestrator) NotifyDisconnect(ctx context.Context, conn model.ConnectionID) error {
	if conn == "" {
		return nil
	}
	return o.do(ctx, func() { o.disconnect(conn) })
}

func (o *Orchestrator) disconnect(conn model.ConnectionID) {
	switch entry, ok := o.sessions.forConnection(conn); {
	case ok:
		if entry.session.Expired(o.clock.Now()) {
			o.finalize(entry, model.FinishDeadline)
		} else {
			o.finalize(entry, model.FinishDisconnect)
		}
	case o.queue.Remove(conn):
		o.logger.Info("queued connection dropped", slog.String("connection", string(conn)))
	case o.pending != nil && o.pending.includes(conn):
		o.logger.Info("connection dropped during session start", slog.String("connection", string(conn)))
	}
	o.registry.Unbind(conn)
}
