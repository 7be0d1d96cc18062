package matchmaking

import "time"

// Config holds tunables for the orchestrator
type Config struct {
	// MatchDuration is how long players have to submit a score
	MatchDuration time.Duration
	// Cooldown delays the next session start after a session finishes
	Cooldown time.Duration
	// TopicCount is the size of the topic range; topics are numbered from 1
	TopicCount int
	// ContentFetchTimeout bounds a single content fetch
	ContentFetchTimeout time.Duration
	// PersistTimeout bounds a single outcome write
	PersistTimeout time.Duration
	// EventBuffer is the capacity of the event loop's inbox
	EventBuffer int
}

// DefaultConfig returns the reference timings
func DefaultConfig() Config {
	return Config{
		MatchDuration:       135 * time.Second,
		Cooldown:            3 * time.Second,
		TopicCount:          5,
		ContentFetchTimeout: 10 * time.Second,
		PersistTimeout:      5 * time.Second,
		EventBuffer:         256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MatchDuration <= 0 {
		c.MatchDuration = d.MatchDuration
	}
	if c.Cooldown < 0 {
		c.Cooldown = d.Cooldown
	}
	if c.TopicCount <= 0 {
		c.TopicCount = d.TopicCount
	}
	if c.ContentFetchTimeout <= 0 {
		c.ContentFetchTimeout = d.ContentFetchTimeout
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = d.PersistTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	return c
}
