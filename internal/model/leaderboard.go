package model

import "cmp"

// Points awarded per outcome
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// LeaderboardEntry is one user's standing across all recorded sessions
type LeaderboardEntry struct {
	UserID   UserID
	Username string
	Points   int
	Wins     int
	Losses   int
	Draws    int
}

// Played returns the number of recorded sessions for the user
func (e *LeaderboardEntry) Played() int {
	return e.Wins + e.Losses + e.Draws
}

// Apply adds one session's result for this entry's user
func (e *LeaderboardEntry) Apply(outcome Outcome, slot int) {
	switch {
	case outcome == OutcomeTie:
		e.Draws++
		e.Points += PointsDraw
	case (outcome == OutcomePlayer1Win) == (slot == 0):
		e.Wins++
		e.Points += PointsWin
	default:
		e.Losses++
		e.Points += PointsLoss
	}
}

// RanksAbove orders entries by points, then wins, then lowest user id
func (e *LeaderboardEntry) RanksAbove(other *LeaderboardEntry) bool {
	if e.Points != other.Points {
		return e.Points > other.Points
	}
	if e.Wins != other.Wins {
		return e.Wins > other.Wins
	}
	return e.UserID < other.UserID
}

// CompareEntries orders a before b when a ranks above b, for use with
// slices.SortFunc. Entries for the same user compare equal.
func CompareEntries(a, b *LeaderboardEntry) int {
	switch {
	case a.UserID == b.UserID:
		return 0
	case a.RanksAbove(b):
		return -1
	case b.RanksAbove(a):
		return 1
	}
	return cmp.Compare(a.UserID, b.UserID)
}
