package tracker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// blockUntilCancelled returns an Activity that flags itself running and exits
// only on cancellation.
func blockUntilCancelled(running *atomic.Int64) Activity {
	return func(ctx context.Context) error {
		running.Add(1)
		defer running.Add(-1)
		<-ctx.Done()
		return nil
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSupervisorStartAndStopAll(t *testing.T) {
	s := NewSupervisor(nil)
	var running atomic.Int64
	s.Start(context.Background(), "room-a",
		blockUntilCancelled(&running),
		blockUntilCancelled(&running),
		blockUntilCancelled(&running),
	)
	waitFor(t, time.Second, func() bool { return running.Load() == 3 })
	if s.Room() != "room-a" {
		t.Errorf("Room() = %q, want room-a", s.Room())
	}
	if s.ActiveCount() != 3 {
		t.Errorf("ActiveCount() = %d, want 3", s.ActiveCount())
	}

	s.StopAll()
	// StopAll joins: by the time it returns, nothing is running.
	if got := running.Load(); got != 0 {
		t.Errorf("activities still running after StopAll: %d", got)
	}
	if s.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d after StopAll, want 0", s.ActiveCount())
	}
	if s.Room() != "" {
		t.Errorf("Room() = %q after StopAll, want empty", s.Room())
	}
}

func TestSupervisorStopAllIdempotent(t *testing.T) {
	s := NewSupervisor(nil)
	s.StopAll() // nothing running; must not panic or block
	var running atomic.Int64
	s.Start(context.Background(), "r", blockUntilCancelled(&running))
	waitFor(t, time.Second, func() bool { return running.Load() == 1 })
	s.StopAll()
	s.StopAll()
	if running.Load() != 0 {
		t.Error("activity survived StopAll")
	}
}

func TestSupervisorSpawnJoinsStop(t *testing.T) {
	s := NewSupervisor(nil)
	var running atomic.Int64
	var spawned atomic.Int64

	// An activity that spawns auxiliary work into the set, the way auto-follow
	// dispatches follows.
	s.Start(context.Background(), "r", func(ctx context.Context) error {
		for i := 0; i < 4; i++ {
			s.Spawn(func(ctx context.Context) error {
				spawned.Add(1)
				defer spawned.Add(-1)
				<-ctx.Done()
				return nil
			})
		}
		running.Add(1)
		defer running.Add(-1)
		<-ctx.Done()
		return nil
	})
	waitFor(t, time.Second, func() bool { return spawned.Load() == 4 && running.Load() == 1 })

	s.StopAll()
	if spawned.Load() != 0 || running.Load() != 0 {
		t.Errorf("outstanding work after StopAll: spawned=%d running=%d", spawned.Load(), running.Load())
	}
}

func TestSupervisorSpawnWhileIdleDropped(t *testing.T) {
	s := NewSupervisor(nil)
	if s.Spawn(func(ctx context.Context) error { return nil }) {
		t.Error("Spawn with no active room should report false")
	}
	var running atomic.Int64
	s.Start(context.Background(), "r", blockUntilCancelled(&running))
	waitFor(t, time.Second, func() bool { return running.Load() == 1 })
	s.StopAll()
	if s.Spawn(func(ctx context.Context) error { return nil }) {
		t.Error("Spawn after StopAll should report false")
	}
}

func TestSupervisorParentContextCancel(t *testing.T) {
	s := NewSupervisor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	var running atomic.Int64
	s.Start(ctx, "r", blockUntilCancelled(&running))
	waitFor(t, time.Second, func() bool { return running.Load() == 1 })
	cancel()
	waitFor(t, time.Second, func() bool { return running.Load() == 0 })
	// StopAll still cleans up bookkeeping.
	s.StopAll()
	if s.Room() != "" {
		t.Errorf("Room() = %q after cancel+StopAll, want empty", s.Room())
	}
}
