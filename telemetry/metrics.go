// Package telemetry provides Prometheus metrics, OpenTelemetry tracing, and
// correlation-id aware logging helpers for the daemon.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles  prometheus.Counter
	CycleErrors prometheus.Counter
	Joins       prometheus.Counter
	Leaves      prometheus.Counter
	Pings       prometheus.Counter
	Follows     prometheus.Counter
	Invites     prometheus.Counter
	Promotions  prometheus.Counter
	Demotions   prometheus.Counter
	RateLimits  prometheus.Counter

	// Histograms (seconds)
	FeedLookupDuration prometheus.Observer
	SweepDuration      prometheus.Observer

	// Gauges
	BotsInRoomGauge       prometheus.Gauge
	ActiveActivitiesGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "club_poll_cycles_total", Help: "Number of orchestrator poll cycles evaluated"})
		CycleErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "club_cycle_errors_total", Help: "Number of poll cycles that logged an error"})
		Joins = promauto.NewCounter(prometheus.CounterOpts{Name: "club_room_joins_total", Help: "Number of rooms joined"})
		Leaves = promauto.NewCounter(prometheus.CounterOpts{Name: "club_room_leaves_total", Help: "Number of rooms left"})
		Pings = promauto.NewCounter(prometheus.CounterOpts{Name: "club_active_pings_total", Help: "Number of successful active pings"})
		Follows = promauto.NewCounter(prometheus.CounterOpts{Name: "club_follows_total", Help: "Number of users followed"})
		Invites = promauto.NewCounter(prometheus.CounterOpts{Name: "club_speaker_invites_total", Help: "Number of invite-to-speak actions dispatched"})
		Promotions = promauto.NewCounter(prometheus.CounterOpts{Name: "club_moderator_promotions_total", Help: "Number of moderator promotions issued"})
		Demotions = promauto.NewCounter(prometheus.CounterOpts{Name: "club_moderator_demotions_total", Help: "Number of moderator demotions issued"})
		RateLimits = promauto.NewCounter(prometheus.CounterOpts{Name: "club_rate_limit_hits_total", Help: "Number of 429 responses absorbed by the retry policy"})
		FeedLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "club_feed_lookup_duration_seconds", Help: "Feed lookup duration seconds", Buckets: prometheus.DefBuckets})
		SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "club_sweep_duration_seconds", Help: "Participant sweep duration seconds", Buckets: prometheus.DefBuckets})
		BotsInRoomGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "club_bots_in_room", Help: "Number of bots currently in a room"})
		ActiveActivitiesGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "club_active_activities", Help: "Number of running background activities and dispatches"})
	})
}

// Inc increments c if metrics are initialized; safe to call from tests that
// never ran Init.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetActiveActivities records the current background activity count.
func SetActiveActivities(n int) {
	if ActiveActivitiesGauge != nil {
		ActiveActivitiesGauge.Set(float64(n))
	}
}

// AddBotsInRoom moves the in-room bot gauge by delta (+1 on join, -1 on leave).
func AddBotsInRoom(delta int) {
	if BotsInRoomGauge != nil {
		BotsInRoomGauge.Add(float64(delta))
	}
}

// ObserveFeedLookup records one feed lookup duration.
func ObserveFeedLookup(d time.Duration) {
	if FeedLookupDuration != nil {
		FeedLookupDuration.Observe(d.Seconds())
	}
}

// ObserveSweep records one participant sweep duration.
func ObserveSweep(d time.Duration) {
	if SweepDuration != nil {
		SweepDuration.Observe(d.Seconds())
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
