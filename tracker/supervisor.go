package tracker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/club-tender/telemetry"
)

// Activity is one long-lived unit of work bound to a room. It must observe
// context cancellation promptly (within its own poll interval) and return nil
// once it has unwound.
type Activity func(ctx context.Context) error

// Supervisor owns the set of background activities bound to a room membership.
// Activities started for a room live in a single errgroup derived from the
// tracker's context; auxiliary fire-and-forget dispatches spawned by a running
// activity join the same group, so StopAll can cancel and await every
// outstanding unit of work deterministically. No work for a room survives
// StopAll returning.
type Supervisor struct {
	log *slog.Logger

	mu     sync.Mutex
	room   string
	cancel context.CancelFunc
	group  *errgroup.Group
	gctx   context.Context

	active atomic.Int64
}

// NewSupervisor returns an idle supervisor logging through logger.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{log: logger}
}

// Start launches the given activities bound to room, each on its own
// goroutine. Any previous set still running is stopped and awaited first;
// callers normally do that themselves before entering a new room.
func (s *Supervisor) Start(ctx context.Context, room string, activities ...Activity) {
	s.StopAll()
	s.mu.Lock()
	defer s.mu.Unlock()
	actx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(actx)
	s.room, s.cancel, s.group, s.gctx = room, cancel, g, gctx
	for _, a := range activities {
		s.run(g, gctx, a)
	}
	s.log.Debug("activities started", slog.String("room", room), slog.Int("count", len(activities)))
}

// Spawn adds an auxiliary unit of work to the running set. It returns false
// when no room is active, in which case fn is dropped: there is no membership
// for it to act under. Safe to call from inside a running activity.
func (s *Supervisor) Spawn(fn Activity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group == nil {
		return false
	}
	s.run(s.group, s.gctx, fn)
	return true
}

func (s *Supervisor) run(g *errgroup.Group, ctx context.Context, fn Activity) {
	telemetry.SetActiveActivities(int(s.active.Add(1)))
	g.Go(func() error {
		defer func() {
			telemetry.SetActiveActivities(int(s.active.Add(-1)))
		}()
		return fn(ctx)
	})
}

// StopAll cancels every running activity and blocks until all of them,
// including spawned auxiliary work, have terminated. After it returns the
// caller may act on the room (e.g. leave it) without racing a straggler's API
// calls. Idempotent; a no-op when nothing is running.
//
// The wait happens outside the lock: a terminating activity may still be
// inside Spawn, which needs the lock to observe that the set is gone.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	room, cancel, g := s.room, s.cancel, s.group
	s.room, s.cancel, s.group, s.gctx = "", nil, nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		s.log.Warn("activity exited with error during stop", slog.String("room", room), slog.Any("err", err))
	}
	s.log.Debug("activities stopped", slog.String("room", room))
}

// Room returns the room the running activities are bound to, or "".
func (s *Supervisor) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// ActiveCount returns the number of activities (including spawned dispatches)
// currently running.
func (s *Supervisor) ActiveCount() int {
	return int(s.active.Load())
}
