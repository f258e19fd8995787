package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsDetected tracks deposits published by watchers per chain
	EventsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listener_events_detected_total",
			Help: "Total number of deposit events detected",
		},
		[]string{"chain"},
	)

	// EventsProcessed tracks pipeline completions per chain and outcome
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listener_events_processed_total",
			Help: "Total number of events run through the pipeline",
		},
		[]string{"chain", "status"},
	)

	// EventsDropped tracks validation rejections per chain and reason
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listener_events_dropped_total",
			Help: "Total number of events dropped by validation",
		},
		[]string{"chain", "reason"},
	)

	// PollErrors tracks transient source failures per chain
	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listener_poll_errors_total",
			Help: "Total number of event source poll failures",
		},
		[]string{"chain"},
	)

	// StageFailures tracks per-stage failures after retries were spent
	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listener_stage_failures_total",
			Help: "Total number of pipeline stage failures",
		},
		[]string{"chain", "stage"},
	)

	// QuorumResults tracks signature collection outcomes
	QuorumResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listener_quorum_results_total",
			Help: "Total number of quorum outcomes by status",
		},
		[]string{"chain", "status"},
	)

	// ChannelDepth tracks how many events sit in the shared channel
	ChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listener_channel_depth",
			Help: "Events buffered in the shared inbound channel",
		},
	)

	// StageLatency tracks per-stage processing latency
	StageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listener_stage_latency_seconds",
			Help:    "Pipeline stage latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)
