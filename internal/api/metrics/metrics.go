// Package metrics defines and registers all custom Prometheus metrics for the
// access administration service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accessadmin"

// ── Access log metrics ───────────────────────────────────────────────────────

// AccessReportsTotal counts access reports posted by the game server.
// Label:
//   - result: "recorded", "debounced", "unknown_community" or "error"
var AccessReportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_reports_total",
		Help:      "Total number of access reports received, by outcome.",
	},
	[]string{"result"},
)

// ── Auth metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Sweeper metrics ──────────────────────────────────────────────────────────

// CodesSweptTotal counts expired access codes removed by the sweeper.
var CodesSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "codes_swept_total",
		Help:      "Total number of expired access codes removed.",
	},
)

// SweepErrorsTotal counts sweep passes that failed.
var SweepErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_errors_total",
		Help:      "Total number of failed expired-code sweeps.",
	},
)

// SweepDuration measures a full sweep pass.
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of an expired-code sweep pass.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
