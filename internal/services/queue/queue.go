// Package queue holds connections waiting to be paired.
package queue

import (
	"slices"

	"github.com/mcoot/quizarena/internal/model"
)

// WaitingQueue is a FIFO of connections. It is not safe for concurrent use.
type WaitingQueue struct {
	items []model.ConnectionID
}

// New creates an empty WaitingQueue
func New() *WaitingQueue {
	return &WaitingQueue{}
}

// Enqueue appends conn to the back of the queue
func (q *WaitingQueue) Enqueue(conn model.ConnectionID) {
	q.items = append(q.items, conn)
}

// DequeueOldest removes and returns the n oldest connections.
// The queue is left untouched if fewer than n are waiting.
func (q *WaitingQueue) DequeueOldest(n int) ([]model.ConnectionID, error) {
	if n <= 0 || len(q.items) < n {
		return nil, model.ErrInsufficientPlayers
	}
	out := slices.Clone(q.items[:n])
	q.items = slices.Delete(q.items, 0, n)
	return out, nil
}

// PushFront returns connections to the head of the queue, keeping their relative order
func (q *WaitingQueue) PushFront(conns ...model.ConnectionID) {
	if len(conns) == 0 {
		return
	}
	q.items = slices.Insert(q.items, 0, conns...)
}

// Remove deletes conn from the queue, reporting whether it was present
func (q *WaitingQueue) Remove(conn model.ConnectionID) bool {
	i := slices.Index(q.items, conn)
	if i < 0 {
		return false
	}
	q.items = slices.Delete(q.items, i, i+1)
	return true
}

// Contains reports whether conn is waiting
func (q *WaitingQueue) Contains(conn model.ConnectionID) bool {
	return slices.Contains(q.items, conn)
}

// Len returns the number of waiting connections
func (q *WaitingQueue) Len() int {
	return len(q.items)
}

// Snapshot returns a copy of the queue, oldest first
func (q *WaitingQueue) Snapshot() []model.ConnectionID {
	return slices.Clone(q.items)
}
