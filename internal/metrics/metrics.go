package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan processing metrics, exported on /metrics.
var (
	ScanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bioattend_scan_outcomes_total",
		Help: "Processed scan attempts by outcome status.",
	}, []string{"status"})

	MatchScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bioattend_match_best_score",
		Help:    "Best similarity score per scan attempt.",
		Buckets: prometheus.LinearBuckets(-0.2, 0.1, 14),
	})

	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bioattend_sessions_opened_total",
		Help: "Attendance sessions opened by check-in.",
	})

	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bioattend_sessions_closed_total",
		Help: "Attendance sessions closed by check-out.",
	})
)
