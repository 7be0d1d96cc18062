package matchmaking

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mcoot/quizarena/internal/model"
)

const gameStartMessage = "Game started!"

// pendingStart is a pair whose content is being fetched
type pendingStart struct {
	conns      [2]model.ConnectionID
	identities [2]model.UserIdentity
	topic      model.TopicID
}

func (p *pendingStart) includes(conn model.ConnectionID) bool {
	return p.conns[0] == conn || p.conns[1] == conn
}

// tryStart begins a session start if the queue and admission state allow it
func (o *Orchestrator) tryStart() {
	if o.locked || o.queue.Len() < 2 || o.clock.Now().Before(o.cooldownUntil) {
		return
	}

	o.locked = true
	conns, err := o.queue.DequeueOldest(2)
	if err != nil {
		o.locked = false
		return
	}

	p := &pendingStart{conns: [2]model.ConnectionID{conns[0], conns[1]}}
	for i, conn := range p.conns {
		id, ok := o.registry.IdentityOf(conn)
		if !ok {
			o.abortStart(p.conns[:], nil, model.ErrIdentityResolutionFailed)
			return
		}
		p.identities[i] = id
	}

	p.topic = model.TopicID(o.random.Intn(o.cfg.TopicCount) + 1)
	o.pending = p

	o.logger.Info("starting session",
		slog.Int64("user1_id", int64(p.identities[0].ID)),
		slog.Int64("user2_id", int64(p.identities[1].ID)),
		slog.Int("topic", int(p.topic)))

	go o.fetchContent(o.runCtx, p)
}

// fetchContent runs off the event loop and posts the result back to it
func (o *Orchestrator) fetchContent(ctx context.Context, p *pendingStart) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ContentFetchTimeout)
	content, err := o.fetcher.FetchContent(ctx, p.topic)
	cancel()
	o.post(func() { o.completeStart(p, content, err) })
}

func (o *Orchestrator) completeStart(p *pendingStart, content *model.Content, fetchErr error) {
	if o.pending != p {
		return
	}
	o.pending = nil

	// Either player may have disconnected while the fetch was outstanding
	for i, conn := range p.conns {
		if id, ok := o.registry.IdentityOf(conn); !ok || id.ID != p.identities[i].ID {
			o.abortStart(p.conns[:], &p.identities, model.ErrIdentityResolutionFailed)
			return
		}
	}

	if fetchErr != nil || content == nil || content.IsEmpty() {
		attrs := []any{slog.Int("topic", int(p.topic))}
		if fetchErr != nil {
			attrs = append(attrs, slog.String("fetch_error", fetchErr.Error()))
		}
		o.logger.Warn("content unavailable", attrs...)
		o.abortStart(p.conns[:], &p.identities, model.ErrContentFetchFailed)
		return
	}

	now := o.clock.Now()
	session := &model.Session{
		ID:        model.SessionID(o.random.UUID()),
		Deadline:  now.Add(o.cfg.MatchDuration),
		Content:   content,
		Status:    model.SessionStatusOpen,
		CreatedAt: now,
	}
	for i := range session.Players {
		session.Players[i] = model.PlayerSlot{
			UserID:     p.identities[i].ID,
			Username:   p.identities[i].Username,
			Connection: p.conns[i],
		}
	}

	id := session.ID
	timer := o.clock.AfterFunc(o.cfg.MatchDuration, func() {
		o.post(func() { o.expire(id) })
	})
	o.sessions.add(session, timer)

	payload := model.GameStartPayload{
		GameID:    session.ID,
		Message:   gameStartMessage,
		Questions: content.Questions,
		Topic:     content.Topic,
		Deadline:  session.Deadline.UnixMilli(),
	}
	for _, conn := range p.conns {
		o.emit(conn, model.EventGameStart, payload)
	}

	o.logger.Info("session started",
		slog.String("session_id", string(session.ID)),
		slog.Int("topic", int(p.topic)),
		slog.Int("questions", len(content.Questions)),
		slog.Time("deadline", session.Deadline))

	o.locked = false
	o.tryStart()
}

// abortStart returns the still-valid connections to the front of the queue and
// releases the lock. No retry is scheduled.
func (o *Orchestrator) abortStart(conns []model.ConnectionID, expected *[2]model.UserIdentity, cause error) {
	restore := make([]model.ConnectionID, 0, len(conns))
	for i, conn := range conns {
		id, ok := o.registry.IdentityOf(conn)
		if !ok {
			continue
		}
		if expected != nil && id.ID != expected[i].ID {
			continue
		}
		restore = append(restore, conn)
	}
	o.queue.PushFront(restore...)
	o.locked = false

	o.logger.Warn("session start aborted",
		slog.String("reason", cause.Error()),
		slog.Int("restored", len(restore)),
		slog.Any("dropped", dropped(conns, restore)))
}

func dropped(all, kept []model.ConnectionID) []model.ConnectionID {
	var out []model.ConnectionID
	for _, c := range all {
		if !slices.Contains(kept, c) {
			out = append(out, c)
		}
	}
	return out
}
