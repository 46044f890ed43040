package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStatus  = "status"
)

var (
	// Upstream metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenpage_upstream_requests_total",
			Help: "Total number of requests issued to upstream data APIs",
		},
		[]string{"service", "endpoint", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenpage_upstream_request_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	// Snapshot metrics
	SnapshotLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenpage_snapshot_lookups_total",
			Help: "Snapshot cache lookups by result (hit, stale, miss)",
		},
		[]string{"result"},
	)

	SnapshotGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenpage_snapshot_generations_total",
			Help: "Snapshot generations by mode (blocking, background)",
		},
		[]string{"mode"},
	)

	SnapshotPartialTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenpage_snapshot_partial_total",
			Help: "Snapshot parts substituted with an empty record",
		},
		[]string{"part"},
	)

	// Refresh metrics
	RefreshRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenpage_refresh_requests_total",
			Help: "Token metadata refresh requests by outcome",
		},
		[]string{"outcome"},
	)

	// HTTP metrics
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenpage_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
)
