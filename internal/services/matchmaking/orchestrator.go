// Package matchmaking pairs queued players into quiz sessions and finalizes them.
//
// All state is owned by a single goroutine started with Run. Public methods hand
// a closure to that goroutine and wait for it, so every event is handled to
// completion before the next one is looked at.
package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/quizarena/internal/dependencies/clock"
	"github.com/mcoot/quizarena/internal/dependencies/random"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/services/identity"
	"github.com/mcoot/quizarena/internal/services/queue"
)

const queuedMessage = "You're in the queue. Please wait for another player."

// Orchestrator owns the waiting queue, identity registry and session table
type Orchestrator struct {
	cfg      Config
	fetcher  ContentFetcher
	recorder OutcomeRecorder
	emitter  Emitter
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	events  chan func()
	done    chan struct{}
	runOnce sync.Once
	persist sync.WaitGroup

	// Owned by the Run goroutine
	runCtx        context.Context
	registry      *identity.Registry
	queue         *queue.WaitingQueue
	sessions      *sessionTable
	pending       *pendingStart
	locked        bool
	cooldownUntil time.Time
	cooldownTimer clock.Timer
}

// New creates an Orchestrator. Call Run to start processing events.
func New(
	cfg Config,
	fetcher ContentFetcher,
	recorder OutcomeRecorder,
	emitter Emitter,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		cfg:      cfg,
		fetcher:  fetcher,
		recorder: recorder,
		emitter:  emitter,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "matchmaking")),
		events:   make(chan func(), cfg.EventBuffer),
		done:     make(chan struct{}),
		registry: identity.NewRegistry(),
		queue:    queue.New(),
		sessions: newSessionTable(),
	}
}

// Run processes events until ctx is cancelled. In-flight outcome writes are
// awaited before it returns. Run must only be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	started := false
	o.runOnce.Do(func() { started = true })
	if !started {
		return model.ErrOrchestratorStopped
	}

	o.runCtx = ctx
	o.logger.Info("matchmaking started")
	defer func() {
		o.sessions.stopAll()
		if o.cooldownTimer != nil {
			o.cooldownTimer.Stop()
		}
		close(o.done)
		o.persist.Wait()
		o.logger.Info("matchmaking stopped",
			slog.Int("abandoned_sessions", o.sessions.len()),
			slog.Int("queued", o.queue.Len()))
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-o.events:
			fn()
		}
	}
}

// Done is closed once Run has returned
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// do runs fn on the event loop and waits for it to finish
func (o *Orchestrator) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case o.events <- wrapped:
	case <-o.done:
		return model.ErrOrchestratorStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-o.done:
		return model.ErrOrchestratorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post hands fn to the event loop without waiting for it
func (o *Orchestrator) post(fn func()) {
	select {
	case o.events <- fn:
	case <-o.done:
	}
}

// JoinQueue binds conn to the user and places it at the back of the waiting queue
func (o *Orchestrator) JoinQueue(ctx context.Context, conn model.ConnectionID, user model.UserIdentity) error {
	if conn == "" {
		return model.ErrMissingConnection
	}
	if !user.ID.Valid() {
		return model.ErrUnauthorized
	}

	var err error
	if loopErr := o.do(ctx, func() { err = o.join(conn, user) }); loopErr != nil {
		return loopErr
	}
	return err
}

func (o *Orchestrator) join(conn model.ConnectionID, user model.UserIdentity) error {
	if o.inMatch(conn) {
		return model.ErrAlreadyInMatch
	}

	prev, bound := o.registry.ConnectionOf(user.ID)
	if bound && prev != conn && o.inMatch(prev) {
		return model.ErrAlreadyInMatch
	}

	// The connection may have closed after the caller checked it. Its
	// disconnect has already been handled, so nothing may be bound to it.
	err := o.emitter.Emit(conn, model.EventQueued, model.QueuedPayload{Message: queuedMessage})
	if errors.Is(err, model.ErrConnectionClosed) {
		o.logger.Info("rejected join on closed connection",
			slog.Int64("user_id", int64(user.ID)),
			slog.String("connection", string(conn)))
		return model.ErrMissingConnection
	}
	if err != nil {
		o.logger.Warn("failed to emit event",
			slog.String("connection", string(conn)),
			slog.String("event", string(model.EventQueued)),
			slog.String("error", err.Error()))
	}

	if bound && prev != conn && o.queue.Remove(prev) {
		o.registry.Unbind(prev)
		o.logger.Info("evicted stale queued connection",
			slog.Int64("user_id", int64(user.ID)),
			slog.String("connection", string(prev)))
	}

	// Re-joining on the same connection keeps its place
	if !o.queue.Contains(conn) {
		o.queue.Enqueue(conn)
	}
	o.registry.Bind(conn, user)

	o.logger.Info("player queued",
		slog.Int64("user_id", int64(user.ID)),
		slog.String("connection", string(conn)),
		slog.Int("queue_length", o.queue.Len()))

	o.tryStart()
	return nil
}

// LeaveQueue removes a waiting connection belonging to the user
func (o *Orchestrator) LeaveQueue(ctx context.Context, conn model.ConnectionID, userID model.UserID) error {
	if conn == "" {
		return model.ErrMissingConnection
	}

	var err error
	if loopErr := o.do(ctx, func() { err = o.leave(conn, userID) }); loopErr != nil {
		return loopErr
	}
	return err
}

func (o *Orchestrator) leave(conn model.ConnectionID, userID model.UserID) error {
	if o.inMatch(conn) {
		return model.ErrCannotLeaveActiveMatch
	}
	id, bound := o.registry.IdentityOf(conn)
	if !bound || id.ID != userID || !o.queue.Contains(conn) {
		return model.ErrNotQueued
	}

	o.queue.Remove(conn)
	o.registry.Unbind(conn)
	o.logger.Info("player left queue",
		slog.Int64("user_id", int64(userID)),
		slog.String("connection", string(conn)))
	return nil
}

// Status returns a snapshot of the queue and session counts
func (o *Orchestrator) Status(ctx context.Context) (model.MatchmakingStatus, error) {
	var status model.MatchmakingStatus
	err := o.do(ctx, func() {
		status = model.MatchmakingStatus{
			Queued:         o.queue.Len(),
			ActiveSessions: o.sessions.len(),
			Locked:         o.locked,
			CooldownUntil:  o.cooldownUntil,
		}
	})
	return status, err
}

// Session returns a copy of a live session
func (o *Orchestrator) Session(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var (
		session *model.Session
		err     error
	)
	loopErr := o.do(ctx, func() {
		entry, ok := o.sessions.get(id)
		if !ok {
			err = model.ErrSessionNotFound
			return
		}
		cp := *entry.session
		session = &cp
	})
	if loopErr != nil {
		return nil, loopErr
	}
	return session, err
}

// inMatch reports whether conn is playing or is part of an in-flight start
func (o *Orchestrator) inMatch(conn model.ConnectionID) bool {
	if _, ok := o.sessions.forConnection(conn); ok {
		return true
	}
	return o.pending != nil && o.pending.includes(conn)
}

func (o *Orchestrator) emit(conn model.ConnectionID, event model.EventType, payload any) {
	if err := o.emitter.Emit(conn, event, payload); err != nil {
		o.logger.Warn("failed to emit event",
			slog.String("connection", string(conn)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
	}
}
