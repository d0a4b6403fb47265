// Package tracker contains the room-tracking orchestrator and its supporting
// pieces.
//
// A Tracker follows one target user around the platform: it polls the active
// rooms feed, joins whatever room currently hosts the target, and leaves again
// when the target moves on or goes offline. While the bot is in a room, a
// Supervisor runs three background activities bound to that room:
//   - heartbeat: periodic active pings so the bot stays marked present
//   - auto-follow: follows every participant the bot has not followed yet
//   - invite listener: accepts speaker invitations addressed to the bot
//
// Each orchestrator cycle while in a room also runs one participant sweep:
// non-allowlisted moderators are demoted, allowlisted speakers are promoted,
// the bot requests speaking rights for itself, and silent listeners are
// invited to speak subject to a per-user cooldown.
//
// All state is in-memory and rebuilt from the platform on every poll; the
// tracker is eventually consistent by construction and survives any single
// failed remote call by retrying on the next cycle.
package tracker
