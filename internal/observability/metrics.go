// Package observability provides metrics and tracing instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PointsAwardsTotal counts ledger awards by reason.
	PointsAwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugtrail_points_awards_total",
		Help: "Number of point awards applied, by reason",
	}, []string{"reason"})

	// DuplicateAwardRejections counts awards rejected by the per-bug dedup ledger.
	DuplicateAwardRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bugtrail_points_duplicate_rejections_total",
		Help: "Number of point awards rejected as duplicates",
	})

	// PointsDeductionsTotal counts ledger deductions.
	PointsDeductionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bugtrail_points_deductions_total",
		Help: "Number of point deductions applied",
	})

	// BugsCreatedTotal counts bug reports.
	BugsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bugtrail_bugs_created_total",
		Help: "Number of bugs reported",
	})

	// BugStatusTransitions counts status transitions by target status.
	BugStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugtrail_bug_status_transitions_total",
		Help: "Number of bug status transitions, by target status",
	}, []string{"status"})

	// RedisErrors counts Redis command errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugtrail_redis_errors_total",
		Help: "Number of Redis command errors",
	}, []string{"command"})

	// DatabaseQueryLatency observes repository query latency.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bugtrail_db_query_duration_seconds",
		Help:    "Database query latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// ActivityFeedConnections gauges live websocket subscribers.
	ActivityFeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bugtrail_activity_feed_connections",
		Help: "Number of connected activity feed clients",
	})

	// ActivityFeedDrops counts messages dropped on slow websocket clients.
	ActivityFeedDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugtrail_activity_feed_drops_total",
		Help: "Number of activity messages dropped, by cause",
	}, []string{"cause"})

	// ActivityEventsPublished counts activity events published to Redis.
	ActivityEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugtrail_activity_events_published_total",
		Help: "Number of activity events published, by action",
	}, []string{"action"})
)
