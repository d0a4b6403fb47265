package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/club-tender/clubapi"
	"github.com/onnwee/club-tender/telemetry"
)

// heartbeat sends an active ping every HeartbeatInterval so the platform keeps
// the bot marked present. Runs until cancelled; never exits on its own.
func (t *Tracker) heartbeat(room string) Activity {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(t.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			status := t.client.ActivePing(ctx, room)
			switch {
			case ctx.Err() != nil:
				return nil
			case status == 200:
				t.log.Info("sent active ping", slog.String("room", room))
				telemetry.Inc(telemetry.Pings)
			default:
				t.log.Warn("active ping failed", slog.String("room", room), slog.Int("status", status))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}

// autoFollow fetches the participant list every FollowPollInterval and follows
// everyone the bot has not followed yet. Each follow is dispatched into the
// supervisor's task set so a room change can await it; the followed-set is
// marked before dispatch so one user is never dispatched twice.
func (t *Tracker) autoFollow(room string) Activity {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(t.cfg.FollowPollInterval)
		defer ticker.Stop()
		for {
			status, ch := t.client.GetChannel(ctx, room)
			if ctx.Err() != nil {
				return nil
			}
			if status == 200 && ch != nil {
				for _, u := range ch.Users {
					if u.UserID == t.client.UserID || u.UserID == 0 {
						continue
					}
					if !t.markFollowed(u.UserID) {
						continue
					}
					t.sup.Spawn(t.followDispatch(u))
				}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}

// followDispatch is one fire-and-forget follow action under the follow retry
// policy (the platform throttles follows harder than other actions, hence the
// longer suspension).
func (t *Tracker) followDispatch(u clubapi.ChannelUser) Activity {
	return func(ctx context.Context) error {
		status, err := t.followPolicy.Do(ctx, func(ctx context.Context) int {
			return t.client.Follow(ctx, u.UserID)
		})
		if err != nil {
			// Cancelled mid-flight; result discarded.
			return nil
		}
		if status == 200 {
			t.log.Info("followed user", slog.Int64("user", u.UserID), slog.String("name", u.Name))
			telemetry.Inc(telemetry.Follows)
		} else {
			t.log.Warn("failed to follow user", slog.Int64("user", u.UserID), slog.Int("status", status))
		}
		return nil
	}
}

// inviteListener polls the participant list every InvitePollInterval and, when
// the bot has been invited to speak but is not yet speaking, accepts by
// issuing the become-speaker action.
func (t *Tracker) inviteListener(room string) Activity {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(t.cfg.InvitePollInterval)
		defer ticker.Stop()
		for {
			status, ch := t.client.GetChannel(ctx, room)
			if ctx.Err() != nil {
				return nil
			}
			if status == 200 && ch != nil {
				for _, u := range ch.Users {
					if u.UserID != t.client.UserID {
						continue
					}
					if u.IsAskedToSpeak && !u.IsSpeaker {
						t.log.Info("speaker invite received, accepting", slog.String("room", room))
						t.becomeSpeaker(ctx, room)
					}
				}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}

// becomeSpeaker requests speaking rights under the short-suspension policy.
func (t *Tracker) becomeSpeaker(ctx context.Context, room string) {
	status, err := t.actionPolicy.Do(ctx, func(ctx context.Context) int {
		return t.client.BecomeSpeaker(ctx, room)
	})
	if err != nil {
		return
	}
	if status == 200 {
		t.log.Info("became a speaker", slog.String("room", room))
	} else {
		t.log.Warn("failed to become speaker", slog.String("room", room), slog.Int("status", status))
	}
}
