package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/onnwee/club-tender/clubapi"
	"github.com/onnwee/club-tender/config"
	"github.com/onnwee/club-tender/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		TrackPollInterval:   10 * time.Millisecond,
		HeartbeatInterval:   10 * time.Millisecond,
		FollowPollInterval:  10 * time.Millisecond,
		InvitePollInterval:  10 * time.Millisecond,
		InviteCooldown:      120 * time.Second,
		RateLimitWait:       time.Millisecond,
		FollowRateLimitWait: time.Millisecond,
		FeedRateLimitWait:   time.Millisecond,
		RetryAttempts:       3,
		RetryDelay:          time.Millisecond,
		SweepMaxConcurrent:  4,
	}
}

func newTestTracker(t *testing.T, m *testutil.MockClubServer, cfg *config.Config, botID int64, target string) *Tracker {
	t.Helper()
	client := &clubapi.Client{BaseURL: m.URL, Token: "tok", UserID: botID}
	return New(client, cfg, target, nil)
}

func TestSweepEnforcesRoles(t *testing.T) {
	m := testutil.NewMockClubServer(t)
	m.MockChannel("R1", []map[string]any{
		{"user_id": 1, "is_speaker": false},                        // the bot: should request speaking rights
		{"user_id": 10, "is_speaker": true, "is_moderator": false}, // allowlisted speaker: promote
		{"user_id": 11, "is_speaker": true, "is_moderator": true},  // rogue moderator: demote
		{"user_id": 12, "is_speaker": false},                       // silent listener: invite
	})
	cfg := testConfig()
	cfg.ModeratorAllowlist = []int64{10}
	tr := newTestTracker(t, m, cfg, 1, "7")

	if err := tr.Sweep(context.Background(), "R1"); err != nil {
		t.Fatalf("Sweep error: %v", err)
	}

	wantOne := map[string]int64{
		"/make_moderator":   10,
		"/uninvite_speaker": 11,
		"/invite_speaker":   12,
	}
	reqs := m.Requests()
	for path, user := range wantOne {
		found := 0
		for _, r := range reqs {
			if r.Path != path {
				continue
			}
			found++
			if got, _ := r.Body["user_id"].(float64); int64(got) != user {
				t.Errorf("%s user_id = %v, want %d", path, r.Body["user_id"], user)
			}
			if r.Body["channel"] != "R1" {
				t.Errorf("%s channel = %v, want R1", path, r.Body["channel"])
			}
		}
		if found != 1 {
			t.Errorf("%s calls = %d, want 1", path, found)
		}
	}
	if got := m.Calls("/become_speaker"); got != 1 {
		t.Errorf("become_speaker calls = %d, want 1 (bot not speaking)", got)
	}
}

func TestSweepIdempotentOnCorrectRoles(t *testing.T) {
	m := testutil.NewMockClubServer(t)
	m.MockChannel("R1", []map[string]any{
		{"user_id": 1, "is_speaker": true},                        // bot already speaking
		{"user_id": 10, "is_speaker": true, "is_moderator": true}, // allowlisted, already moderator
		{"user_id": 12, "is_speaker": true},                       // already a speaker, nothing to do
	})
	cfg := testConfig()
	cfg.ModeratorAllowlist = []int64{10}
	tr := newTestTracker(t, m, cfg, 1, "7")

	for i := 0; i < 2; i++ {
		if err := tr.Sweep(context.Background(), "R1"); err != nil {
			t.Fatalf("Sweep %d error: %v", i, err)
		}
	}
	for _, path := range []string{"/make_moderator", "/uninvite_speaker", "/invite_speaker", "/become_speaker"} {
		if got := m.Calls(path); got != 0 {
			t.Errorf("%s calls = %d, want 0 for already-correct roles", path, got)
		}
	}
}

func TestSweepInviteCooldown(t *testing.T) {
	m := testutil.NewMockClubServer(t)
	m.MockChannel("R1", []map[string]any{
		{"user_id": 1, "is_speaker": true},
		{"user_id": 12, "is_speaker": false},
	})
	tr := newTestTracker(t, m, testConfig(), 1, "7")

	// Two immediate sweeps: the listener is invited once, the cooldown
	// swallows the second attempt.
	for i := 0; i < 2; i++ {
		if err := tr.Sweep(context.Background(), "R1"); err != nil {
			t.Fatalf("Sweep %d error: %v", i, err)
		}
	}
	if got := m.Calls("/invite_speaker"); got != 1 {
		t.Errorf("invite_speaker calls = %d, want 1 under cooldown", got)
	}
}

func TestSweepSkipsOtherChecksForDemotedUser(t *testing.T) {
	m := testutil.NewMockClubServer(t)
	// Rogue moderator not speaking: demotion must not be followed by an invite
	// in the same sweep.
	m.MockChannel("R1", []map[string]any{
		{"user_id": 1, "is_speaker": true},
		{"user_id": 11, "is_speaker": false, "is_moderator": true},
	})
	tr := newTestTracker(t, m, testConfig(), 1, "7")

	if err := tr.Sweep(context.Background(), "R1"); err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if got := m.Calls("/uninvite_speaker"); got != 1 {
		t.Errorf("uninvite_speaker calls = %d, want 1", got)
	}
	if got := m.Calls("/invite_speaker"); got != 0 {
		t.Errorf("invite_speaker calls = %d, want 0 for demoted user", got)
	}
}

func TestSweepFailedFetch(t *testing.T) {
	m := testutil.NewMockClubServer(t)
	m.MockStatus("/get_channel", 500)
	tr := newTestTracker(t, m, testConfig(), 1, "7")
	if err := tr.Sweep(context.Background(), "R1"); err == nil {
		t.Fatal("expected error when participant fetch fails")
	}
}
