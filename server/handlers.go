package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/club-tender/tracker"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	trackers []*tracker.Tracker
	started  time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(trackers []*tracker.Tracker) *Handlers {
	return &Handlers{trackers: trackers, started: time.Now().UTC()}
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready once at least one tracker has resolved its target
// and entered its poll loop.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	for _, t := range h.trackers {
		if t.TargetID() != 0 {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
	}
	http.Error(w, "no tracker ready", http.StatusServiceUnavailable)
}

type botStatus struct {
	BotID           int64  `json:"bot_id"`
	TargetID        int64  `json:"target_id"`
	CurrentRoom     string `json:"current_room,omitempty"`
	InRoom          bool   `json:"in_room"`
	Followed        int    `json:"followed"`
	InviteCooldowns int    `json:"invite_cooldowns"`
}

type statusResponse struct {
	UptimeSeconds int64       `json:"uptime_seconds"`
	Bots          []botStatus `json:"bots"`
}

// HandleStatus returns per-bot tracking state for dashboards and debugging.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{UptimeSeconds: int64(time.Since(h.started).Seconds())}
	for _, t := range h.trackers {
		room := t.CurrentRoom()
		resp.Bots = append(resp.Bots, botStatus{
			BotID:           t.BotID(),
			TargetID:        t.TargetID(),
			CurrentRoom:     room,
			InRoom:          room != "",
			Followed:        t.FollowedCount(),
			InviteCooldowns: t.InviteCooldowns(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
