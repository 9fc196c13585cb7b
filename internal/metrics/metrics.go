package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	SignedURLLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "signed_url_lookups_total",
		Help:      "Signed URL cache lookups by result (hit, miss, refresh).",
	}, []string{"result"})

	SigningFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "signing_failures_total",
		Help:      "Total number of failed URL signing calls.",
	})

	MenuLoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "menureel",
		Name:      "menu_load_duration_seconds",
		Help:      "Duration of full menu loads including URL signing.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	MenuLoadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "menu_load_failures_total",
		Help:      "Total number of feed-level menu load failures.",
	})

	ActiveFeedSessions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "menureel",
		Name:      "active_feed_sessions",
		Help:      "Number of connected feed sessions by client platform.",
	}, []string{"platform"})

	FeedSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "feed_sessions_total",
		Help:      "Feed sessions opened, by client platform and country.",
	}, []string{"platform", "country"})

	ActiveIndexChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "active_index_changes_total",
		Help:      "Total number of active index changes across all feeds.",
	})

	PlaybackCommandFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "playback_command_failures_total",
		Help:      "Player commands that failed, by command.",
	}, []string{"command"})

	PrefetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "menureel",
		Name:      "prefetch_failures_total",
		Help:      "Video warm-up requests that failed.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		SignedURLLookups,
		SigningFailures,
		MenuLoadDuration,
		MenuLoadFailures,
		ActiveFeedSessions,
		FeedSessionsTotal,
		ActiveIndexChanges,
		PlaybackCommandFailures,
		PrefetchFailures,
	)
}
