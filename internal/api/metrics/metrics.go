// Package metrics defines and registers all custom Prometheus metrics for
// the Trueque marketplace API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trueque"

// ── Search metrics ────────────────────────────────────────────────────────────

// SearchesTotal counts applied searches by the surface that produced the
// intent (search_bar, category_slider, most_searched, map_picker).
var SearchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of search intents applied, by producing surface.",
	},
	[]string{"source"},
)

// FiltersRemovedTotal counts per-chip filter removals.
// Label:
//   - kind: "search", "category", or "location"
var FiltersRemovedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filters_removed_total",
		Help:      "Total number of individual filter removals, by filter kind.",
	},
	[]string{"kind"},
)

// SearchResultSize measures how many listings survive a filter pass.
var SearchResultSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_result_size",
		Help:      "Number of listings returned per filter evaluation.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	},
)

// HandoffsExpiredTotal counts browse requests that presented an intent token
// with no live handoff behind it: the entry expired or was already spent.
var HandoffsExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_handoffs_expired_total",
		Help:      "Total number of intent tokens presented after their handoff expired or was spent.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts sign-up/sign-in/sign-out attempts.
// Labels:
//   - op: "signup", "signin", "signout", "verify"
//   - result: "ok" or "failed"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// GuardDecisionsTotal counts access-guard outcomes.
// Label:
//   - outcome: "allow", "redirect", or "pending"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard routing decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Reference data metrics ────────────────────────────────────────────────────

// RefDataFetchTotal counts reference collection fetch settlements.
// Labels:
//   - collection: "categories", "subcategories", "provinces", "municipalities"
//   - result: "ok" or "failed"
var RefDataFetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refdata_fetch_total",
		Help:      "Total number of reference data fetches, by collection and result.",
	},
	[]string{"collection", "result"},
)
