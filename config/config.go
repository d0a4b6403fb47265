// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Bot credentials are required to track anything; use ValidateBots before starting trackers.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Bot is one credential set: a platform token, the bot's own numeric identity,
// and the target it should track. Target may be a numeric user id, a bare
// handle, or a full profile URL; it is resolved once at startup.
type Bot struct {
	Token  string
	UserID int64
	Target string
}

type Config struct {
	// Platform
	APIBase string
	Bots    []Bot

	// Role enforcement
	ModeratorAllowlist []int64

	// Orchestrator
	TrackPollInterval time.Duration

	// Background activities
	HeartbeatInterval  time.Duration
	FollowPollInterval time.Duration
	InvitePollInterval time.Duration

	// Throttling
	InviteCooldown      time.Duration
	RateLimitWait       time.Duration // role/become-speaker class
	FollowRateLimitWait time.Duration
	FeedRateLimitWait   time.Duration
	RetryAttempts       int
	RetryDelay          time.Duration

	// Sweep fan-out
	SweepMaxConcurrent int
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// Load reads environment variables and applies defaults. It doesn't fail if bot creds
// are missing; use ValidateBots() when you require trackers. The interval/cooldown
// defaults mirror the platform's observed tolerances and are best-effort throttles,
// not hard guarantees.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.APIBase = os.Getenv("CLUB_API_BASE")
	if cfg.APIBase == "" {
		cfg.APIBase = "https://www.clubhouseapi.com/api"
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	// Bots: either CLUB_BOTS="token:bot_id:target,token:bot_id:target" or the
	// single-bot CLUB_BOT_TOKEN / CLUB_BOT_USER_ID / CLUB_TARGET trio.
	if v := os.Getenv("CLUB_BOTS"); v != "" {
		for _, entry := range strings.Split(v, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			parts := strings.SplitN(entry, ":", 3)
			if len(parts) != 3 {
				return nil, fmt.Errorf("invalid CLUB_BOTS entry %q (want token:bot_id:target)", entry)
			}
			id, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid bot id in CLUB_BOTS entry %q: %w", entry, err)
			}
			cfg.Bots = append(cfg.Bots, Bot{Token: parts[0], UserID: id, Target: parts[2]})
		}
	} else if tok := os.Getenv("CLUB_BOT_TOKEN"); tok != "" {
		id, err := strconv.ParseInt(os.Getenv("CLUB_BOT_USER_ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CLUB_BOT_USER_ID: %w", err)
		}
		cfg.Bots = append(cfg.Bots, Bot{Token: tok, UserID: id, Target: os.Getenv("CLUB_TARGET")})
	}

	if v := os.Getenv("CLUB_MODERATOR_ALLOWLIST"); v != "" {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid CLUB_MODERATOR_ALLOWLIST entry %q: %w", s, err)
			}
			cfg.ModeratorAllowlist = append(cfg.ModeratorAllowlist, id)
		}
	}

	cfg.TrackPollInterval = getDuration("TRACK_POLL_INTERVAL", 5*time.Second)
	cfg.HeartbeatInterval = getDuration("HEARTBEAT_INTERVAL", 15*time.Second)
	cfg.FollowPollInterval = getDuration("FOLLOW_POLL_INTERVAL", 10*time.Second)
	cfg.InvitePollInterval = getDuration("INVITE_POLL_INTERVAL", 5*time.Second)

	cfg.InviteCooldown = getDuration("INVITE_COOLDOWN", 120*time.Second)
	cfg.RateLimitWait = getDuration("RATE_LIMIT_WAIT", 30*time.Second)
	cfg.FollowRateLimitWait = getDuration("FOLLOW_RATE_LIMIT_WAIT", 60*time.Second)
	cfg.FeedRateLimitWait = getDuration("FEED_RATE_LIMIT_WAIT", 60*time.Second)
	cfg.RetryAttempts = getInt("RETRY_ATTEMPTS", 3)
	cfg.RetryDelay = getDuration("RETRY_DELAY", 4*time.Second)

	cfg.SweepMaxConcurrent = getInt("SWEEP_MAX_CONCURRENT", 8)

	return cfg, nil
}

// ValidateBots checks that at least one usable credential set is configured.
func (c *Config) ValidateBots() error {
	if len(c.Bots) == 0 {
		return fmt.Errorf("missing bot env: require CLUB_BOTS or CLUB_BOT_TOKEN, CLUB_BOT_USER_ID, CLUB_TARGET")
	}
	for i, b := range c.Bots {
		if b.Token == "" || b.UserID == 0 || b.Target == "" {
			return fmt.Errorf("bot %d incomplete: token, user id, and target are all required", i)
		}
	}
	return nil
}

// IsAllowedModerator reports whether id is in the configured moderator allowlist.
func (c *Config) IsAllowedModerator(id int64) bool {
	for _, m := range c.ModeratorAllowlist {
		if m == id {
			return true
		}
	}
	return false
}
