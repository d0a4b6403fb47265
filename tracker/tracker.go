package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/club-tender/clubapi"
	"github.com/onnwee/club-tender/config"
	"github.com/onnwee/club-tender/telemetry"
)

// Tracker is one bot's room session orchestrator. It holds the session state:
// the resolved target id (immutable for the session), the current room (set
// only by the orchestrator loop), the invite cooldown record, the monotonic
// followed-set, and the supervisor owning the background activities.
type Tracker struct {
	client *clubapi.Client
	cfg    *config.Config
	log    *slog.Logger

	locator  *Locator
	cooldown *Cooldown
	sup      *Supervisor

	// Per-action-class retry policies. The policy is the single home for
	// backoff behavior; nothing else sleeps or loops on failure.
	actionPolicy clubapi.Policy
	followPolicy clubapi.Policy

	target   string
	targetID int64

	mu          sync.Mutex
	currentRoom string
	followed    map[int64]struct{}
}

// New builds a tracker for one bot credential set. target is the raw
// configured target (id, handle, or profile URL); it is resolved when Run
// starts.
func New(client *clubapi.Client, cfg *config.Config, target string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.Int64("bot", client.UserID))
	base := clubapi.Policy{
		Attempts:      cfg.RetryAttempts,
		Delay:         cfg.RetryDelay,
		RateLimitWait: cfg.RateLimitWait,
	}
	return &Tracker{
		client:       client,
		cfg:          cfg,
		log:          logger,
		locator:      &Locator{Client: client, Policy: clubapi.Policy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, RateLimitWait: cfg.FeedRateLimitWait}},
		cooldown:     NewCooldown(cfg.InviteCooldown),
		sup:          NewSupervisor(logger),
		actionPolicy: base,
		followPolicy: clubapi.Policy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, RateLimitWait: cfg.FollowRateLimitWait},
		target:       target,
		followed:     make(map[int64]struct{}),
	}
}

// CurrentRoom returns the room the bot is currently a member of, or "".
func (t *Tracker) CurrentRoom() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentRoom
}

func (t *Tracker) setRoom(room string) {
	t.mu.Lock()
	t.currentRoom = room
	t.mu.Unlock()
}

// BotID returns the bot's own platform user id.
func (t *Tracker) BotID() int64 {
	return t.client.UserID
}

// TargetID returns the resolved target user id (0 until Run has resolved it).
func (t *Tracker) TargetID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targetID
}

// ActiveActivities returns the number of running background activities and
// dispatches. Zero whenever the bot is idle.
func (t *Tracker) ActiveActivities() int {
	return t.sup.ActiveCount()
}

// InviteCooldowns returns how many users currently hold an invite cooldown record.
func (t *Tracker) InviteCooldowns() int {
	return t.cooldown.Len()
}

// FollowedCount returns how many distinct users the bot has followed this session.
func (t *Tracker) FollowedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.followed)
}

// markFollowed records the user and reports whether it was newly added.
func (t *Tracker) markFollowed(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.followed[id]; ok {
		return false
	}
	t.followed[id] = struct{}{}
	return true
}

// Run resolves the target and drives the Idle/InRoom state machine until ctx
// is cancelled. Nothing inside a cycle is fatal: a failed remote call is
// logged and the next poll proceeds. The loop ends only with the process.
func (t *Tracker) Run(ctx context.Context) {
	targetID, err := t.client.ResolveUserID(ctx, t.target)
	if err != nil {
		t.log.Error("failed to resolve target", slog.String("target", t.target), slog.Any("err", err))
		return
	}
	t.mu.Lock()
	t.targetID = targetID
	t.mu.Unlock()
	t.log.Info("tracking started", slog.String("target", t.target), slog.Int64("target_id", targetID),
		slog.Duration("interval", t.cfg.TrackPollInterval))

	ticker := time.NewTicker(t.cfg.TrackPollInterval)
	defer ticker.Stop()
	for {
		t.cycle(ctx)
		select {
		case <-ctx.Done():
			t.shutdown()
			return
		case <-ticker.C:
		}
	}
}

// cycle evaluates one poll interval: locate the target, reconcile membership,
// and sweep the current room's participants.
func (t *Tracker) cycle(ctx context.Context) {
	telemetry.Inc(telemetry.PollCycles)
	corr := uuid.NewString()[:8]
	cctx := telemetry.WithCorrelation(ctx, corr)
	logger := t.log.With(slog.String("corr", corr))

	cctx, span := telemetry.StartSpan(cctx, "tracker", "track.cycle")
	defer span.End()

	room, err := t.locator.Locate(cctx, t.TargetID())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("room lookup failed", slog.Any("err", err))
		telemetry.Inc(telemetry.CycleErrors)
		telemetry.RecordError(span, err)
		return
	}

	current := t.CurrentRoom()
	switch {
	case room != "" && room != current:
		// Target appeared or moved. Tear down the old membership completely
		// before establishing the new one: stop activities, await them, leave,
		// then join and start fresh. The whole transition completes within
		// this cycle.
		if current != "" {
			t.leaveRoom(cctx, current, logger)
		}
		t.enterRoom(cctx, room, logger)
	case room == "" && current != "":
		// Target went offline; go idle.
		t.leaveRoom(cctx, current, logger)
	}

	if current = t.CurrentRoom(); current != "" {
		// Continuous enforcement: one participant sweep per cycle while in a
		// room, independent of the background loops.
		if err := t.Sweep(cctx, current); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("participant sweep failed", slog.String("room", current), slog.Any("err", err))
			telemetry.Inc(telemetry.CycleErrors)
			telemetry.RecordError(span, err)
			return
		}
	}
	telemetry.SetSpanSuccess(span)
}

// enterRoom joins the room and, on success, accepts any pending speaker
// invite, runs one immediate participant sweep, and starts the background
// activities bound to the room. A failed join leaves the tracker idle; the
// next cycle retries.
func (t *Tracker) enterRoom(ctx context.Context, room string, logger *slog.Logger) {
	status := t.client.JoinChannel(ctx, room)
	if status != 200 {
		logger.Warn("failed to join room", slog.String("room", room), slog.Int("status", status))
		telemetry.Inc(telemetry.CycleErrors)
		return
	}
	logger.Info("joined room", slog.String("room", room))
	telemetry.Inc(telemetry.Joins)
	telemetry.AddBotsInRoom(1)
	t.setRoom(room)

	t.acceptPendingInvite(ctx, room, logger)
	if err := t.Sweep(ctx, room); err != nil && ctx.Err() == nil {
		logger.Warn("initial sweep failed", slog.String("room", room), slog.Any("err", err))
		telemetry.Inc(telemetry.CycleErrors)
	}
	t.sup.Start(ctx, room, t.heartbeat(room), t.autoFollow(room), t.inviteListener(room))
}

// leaveRoom stops and awaits every activity bound to room, then leaves it.
// Activities are fully terminated before the leave call goes out, so no
// straggler races its API calls against the departure.
func (t *Tracker) leaveRoom(ctx context.Context, room string, logger *slog.Logger) {
	t.sup.StopAll()
	t.client.LeaveChannel(ctx, room)
	t.setRoom("")
	logger.Info("left room", slog.String("room", room))
	telemetry.Inc(telemetry.Leaves)
	telemetry.AddBotsInRoom(-1)
}

// acceptPendingInvite accepts a speaker invitation that may already be waiting
// at join time. Bounded retry; a 400/404 means no invite is pending and is
// absorbed.
func (t *Tracker) acceptPendingInvite(ctx context.Context, room string, logger *slog.Logger) {
	status, err := t.actionPolicy.Do(ctx, func(ctx context.Context) int {
		return t.client.BecomeSpeaker(ctx, room)
	})
	if err != nil {
		return
	}
	if status == 200 {
		logger.Info("accepted speaker invite", slog.String("room", room))
	}
}

// shutdown tears down the active membership on process exit. The run context
// is already cancelled, so the leave call gets its own short deadline.
func (t *Tracker) shutdown() {
	room := t.CurrentRoom()
	t.sup.StopAll()
	if room == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t.client.LeaveChannel(ctx, room)
	t.setRoom("")
	t.log.Info("left room on shutdown", slog.String("room", room))
	telemetry.AddBotsInRoom(-1)
}
