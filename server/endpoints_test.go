package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/club-tender/clubapi"
	"github.com/onnwee/club-tender/config"
	"github.com/onnwee/club-tender/tracker"
)

func testTrackers() []*tracker.Tracker {
	cfg := &config.Config{
		TrackPollInterval:   time.Second,
		HeartbeatInterval:   time.Second,
		FollowPollInterval:  time.Second,
		InvitePollInterval:  time.Second,
		InviteCooldown:      time.Minute,
		RateLimitWait:       time.Second,
		FollowRateLimitWait: time.Second,
		FeedRateLimitWait:   time.Second,
		RetryAttempts:       3,
		RetryDelay:          time.Second,
		SweepMaxConcurrent:  4,
	}
	client := &clubapi.Client{BaseURL: "http://localhost:0", Token: "t", UserID: 42}
	return []*tracker.Tracker{tracker.New(client, cfg, "7", nil)}
}

func TestHealthz(t *testing.T) {
	h := NewMux(testTrackers())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("missing X-Correlation-ID header")
	}
}

func TestReadyzNotReady(t *testing.T) {
	// Trackers that never ran have no resolved target.
	h := NewMux(testTrackers())
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503 before any tracker resolves", rr.Code)
	}
}

func TestStatusShape(t *testing.T) {
	h := NewMux(testTrackers())
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d, want 200", rr.Code)
	}
	var resp struct {
		UptimeSeconds int64 `json:"uptime_seconds"`
		Bots          []struct {
			BotID           int64  `json:"bot_id"`
			InRoom          bool   `json:"in_room"`
			Followed        int    `json:"followed"`
			InviteCooldowns int    `json:"invite_cooldowns"`
			Room            string `json:"current_room"`
		} `json:"bots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if len(resp.Bots) != 1 {
		t.Fatalf("bots = %d, want 1", len(resp.Bots))
	}
	if resp.Bots[0].BotID != 42 {
		t.Errorf("bot_id = %d, want 42", resp.Bots[0].BotID)
	}
	if resp.Bots[0].InRoom {
		t.Error("in_room = true for idle tracker")
	}
	if resp.Bots[0].InviteCooldowns != 0 {
		t.Errorf("invite_cooldowns = %d, want 0 for idle tracker", resp.Bots[0].InviteCooldowns)
	}
}

func TestCorrelationIDEcho(t *testing.T) {
	h := NewMux(testTrackers())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "corr-abc" {
		t.Errorf("X-Correlation-ID = %q, want corr-abc (reused)", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(testTrackers())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rr.Code)
	}
}
