package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/club-tender/clubapi"
	"github.com/onnwee/club-tender/telemetry"
)

// Sweep runs one full pass over the room's current participants:
//
//   - a moderator outside the allowlist is demoted back to the audience
//   - an allowlisted participant who is speaking but not yet a moderator is
//     promoted, awaited before that participant's remaining checks so an
//     already-correct role is never promoted twice
//   - the bot itself requests speaking rights if it has none
//   - any remaining silent listener is invited to speak, subject to the
//     per-user cooldown
//
// Demotions, the bot's own speaker request, and invites are dispatched
// concurrently into a bounded group; Sweep returns only after all of them have
// settled. Running the same sweep twice against an unchanged participant list
// is a no-op for roles that are already correct.
func (t *Tracker) Sweep(ctx context.Context, room string) error {
	start := time.Now()
	defer func() { telemetry.ObserveSweep(time.Since(start)) }()

	status, ch := t.client.GetChannel(ctx, room)
	if status != 200 || ch == nil {
		return fmt.Errorf("participant fetch for room %s failed with status %d", room, status)
	}

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.SweepMaxConcurrent)
	for _, u := range ch.Users {
		if u.UserID == 0 {
			continue
		}
		if u.IsModerator && !t.cfg.IsAllowedModerator(u.UserID) {
			g.Go(func() error {
				t.demote(gctx, room, u)
				return nil
			})
			continue
		}
		if t.cfg.IsAllowedModerator(u.UserID) && u.IsSpeaker && !u.IsModerator {
			t.promote(gctx, room, u)
		}
		if u.UserID == t.client.UserID && !u.IsSpeaker {
			g.Go(func() error {
				t.becomeSpeaker(gctx, room)
				return nil
			})
		}
		if u.UserID != t.client.UserID && !u.IsSpeaker && !u.IsModerator && t.cooldown.Acquire(u.UserID, now) {
			g.Go(func() error {
				t.invite(gctx, room, u)
				return nil
			})
		}
	}
	return g.Wait()
}

// demote moves a non-allowlisted moderator back to the audience.
func (t *Tracker) demote(ctx context.Context, room string, u clubapi.ChannelUser) {
	status := t.client.UninviteSpeaker(ctx, room, u.UserID)
	if status == 200 {
		t.log.Info("moved moderator to audience", slog.Int64("user", u.UserID), slog.String("name", u.Name), slog.String("room", room))
		telemetry.Inc(telemetry.Demotions)
	} else if ctx.Err() == nil {
		t.log.Warn("failed to move moderator to audience", slog.Int64("user", u.UserID), slog.Int("status", status))
	}
}

// promote grants moderator rights to an allowlisted speaker. Awaited inline.
func (t *Tracker) promote(ctx context.Context, room string, u clubapi.ChannelUser) {
	status, err := t.actionPolicy.Do(ctx, func(ctx context.Context) int {
		return t.client.MakeModerator(ctx, room, u.UserID)
	})
	if err != nil {
		return
	}
	if status == 200 {
		t.log.Info("made user a moderator", slog.Int64("user", u.UserID), slog.String("room", room))
		telemetry.Inc(telemetry.Promotions)
	} else {
		t.log.Warn("failed to make user a moderator", slog.Int64("user", u.UserID), slog.Int("status", status))
	}
}

// invite asks a silent listener to speak. The cooldown entry was already
// recorded when the caller acquired it, so a failed invite still waits out the
// window before the next attempt.
func (t *Tracker) invite(ctx context.Context, room string, u clubapi.ChannelUser) {
	status := t.client.InviteSpeaker(ctx, room, u.UserID)
	if status == 200 {
		t.log.Info("invited user to speak", slog.Int64("user", u.UserID), slog.String("name", u.Name), slog.String("room", room))
		telemetry.Inc(telemetry.Invites)
	} else if ctx.Err() == nil {
		t.log.Warn("failed to invite user to speak", slog.Int64("user", u.UserID), slog.Int("status", status))
	}
}
