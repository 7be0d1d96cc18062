package matchmaking

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/quizarena/internal/model"
)

const gameEndMessage = "Game over!"

// finalize finishes a session exactly once: it releases both players, notifies
// them, hands the result to the recorder and opens the cooldown window.
func (o *Orchestrator) finalize(entry *sessionEntry, reason model.FinishReason) {
	session := entry.session
	if !session.IsOpen() {
		return
	}
	session.Status = model.SessionStatusFinalizing
	if entry.deadline != nil {
		entry.deadline.Stop()
	}

	now := o.clock.Now()
	p1, p2 := session.Players[0], session.Players[1]
	outcome := model.DetermineOutcome(p1.Score, p2.Score)

	o.sessions.remove(session.ID)
	for _, p := range session.Players {
		if id, ok := o.registry.IdentityOf(p.Connection); ok && id.ID == p.UserID {
			o.registry.Unbind(p.Connection)
		}
	}

	payload := model.GameEndPayload{
		GameID:  session.ID,
		Message: gameEndMessage,
		Outcome: outcome,
		Reason:  reason,
		Scores:  [2]int{p1.Score, p2.Score},
		Players: [2]model.UserID{p1.UserID, p2.UserID},
	}
	for _, p := range session.Players {
		o.emit(p.Connection, model.EventGameEnd, payload)
	}

	o.logger.Info("session finished",
		slog.String("session_id", string(session.ID)),
		slog.String("reason", string(reason)),
		slog.String("outcome", outcome.String()),
		slog.Int("score1", p1.Score),
		slog.Int("score2", p2.Score))

	o.record(&model.SessionResult{
		SessionID:  session.ID,
		User1ID:    p1.UserID,
		User2ID:    p2.UserID,
		User1Score: p1.Score,
		User2Score: p2.Score,
		Outcome:    outcome,
		Reason:     reason,
		FinishedAt: now,
	})

	o.startCooldown(now)
}

// record persists the result in the background. Failures are logged only.
func (o *Orchestrator) record(result *model.SessionResult) {
	if !result.User1ID.Valid() || !result.User2ID.Valid() {
		o.logger.Error("skipping outcome persistence",
			slog.String("session_id", string(result.SessionID)),
			slog.String("error", model.ErrInvalidPlayerIDs.Error()))
		return
	}

	o.persist.Add(1)
	go func() {
		defer o.persist.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PersistTimeout)
		defer cancel()
		if err := o.recorder.RecordOutcome(ctx, result); err != nil {
			o.logger.Error("failed to record session outcome",
				slog.String("session_id", string(result.SessionID)),
				slog.String("error", err.Error()))
		}
	}()
}

func (o *Orchestrator) startCooldown(now time.Time) {
	o.cooldownUntil = now.Add(o.cfg.Cooldown)
	if o.cooldownTimer != nil {
		o.cooldownTimer.Stop()
	}
	o.cooldownTimer = o.clock.AfterFunc(o.cfg.Cooldown, func() {
		o.post(o.tryStart)
	})
}
