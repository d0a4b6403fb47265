package tracker

import (
	"sync"
	"time"
)

// Cooldown is a time-indexed record of the last attempted action per subject.
// It throttles repeated invites against the same participant: an entry is
// refreshed when an action is attempted, not when it is confirmed, so two
// near-simultaneous deciders cannot both win once one has recorded. This is a
// best-effort throttle, not a lock; a benign duplicate under a razor-thin race
// is acceptable. Entries are never expired, only reinterpreted as actionable
// again once the window has elapsed.
type Cooldown struct {
	window time.Duration

	mu   sync.Mutex
	last map[int64]time.Time
}

// NewCooldown returns a tracker enforcing the given minimum gap between
// attempts on the same subject.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: make(map[int64]time.Time)}
}

// ShouldAct reports whether the subject is outside its cooldown window at now.
func (c *Cooldown) ShouldAct(id int64, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.last[id]
	return !ok || now.Sub(t) >= c.window
}

// Record stamps the subject with an attempt at now, overwriting any prior entry.
func (c *Cooldown) Record(id int64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[id] = now
}

// Acquire atomically checks and records: it returns true and stamps the
// subject iff the subject was actionable at now. Concurrent callers racing on
// the same subject see at most one winner per window.
func (c *Cooldown) Acquire(id int64, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.last[id]; ok && now.Sub(t) < c.window {
		return false
	}
	c.last[id] = now
	return true
}

// Len returns the number of subjects ever recorded.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}
