// Package metrics exposes the daemon's Prometheus instruments. The external
// evaluation harness scrapes these to measure convergence time and LSA
// counts alongside the line-oriented log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HelloTx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_hello_tx_total",
		Help: "HELLO datagrams sent.",
	})
	HelloRx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_hello_rx_total",
		Help: "HELLO datagrams received.",
	})
	LSAOriginated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_lsa_originated_total",
		Help: "LSAs originated by this node.",
	})
	LSAFloodTx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_lsa_flood_tx_total",
		Help: "LSA datagrams forwarded to neighbors.",
	})
	LSAFloodRx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_lsa_flood_rx_total",
		Help: "LSA datagrams received.",
	})
	LSAIgnored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_lsa_ignored_total",
		Help: "Received LSAs dropped as duplicate or stale.",
	})
	MalformedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_malformed_dropped_total",
		Help: "Datagrams dropped as malformed or of unknown type.",
	})
	SPFRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_spf_runs_total",
		Help: "Path engine recomputation passes.",
	})
	SPFDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routing_spf_duration_seconds",
		Help:    "Duration of one recomputation pass.",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
	})
	IntentFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_intent_fallbacks_total",
		Help: "Routes installed on the unconstrained fallback path.",
	})
	RIBInstalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_rib_installs_total",
		Help: "Kernel route install/replace operations issued.",
	})
	RIBRemoves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_rib_removes_total",
		Help: "Kernel route delete operations issued.",
	})
	RIBFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_rib_failures_total",
		Help: "Kernel route operations that failed.",
	})
)
