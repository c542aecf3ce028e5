package gcpolicy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// changeRequests counts change requests by merge outcome
	changeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcpolicy_change_requests_total",
		Help: "Total change requests by merge outcome",
	}, []string{"outcome"})

	// scopeDepth tracks the number of active scopes
	scopeDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gcpolicy_scope_depth",
		Help: "Number of currently active policy scopes",
	})

	// cycleResults counts pacer decisions by result
	cycleResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcpolicy_cycles_total",
		Help: "Total collection cycles attempted by the pacer, by result",
	}, []string{"result"})

	// cycleDuration tracks how long completed collection cycles take
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gcpolicy_cycle_duration_seconds",
		Help:    "Completed collection cycle duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	})

	// droppedEvents counts events dropped because a subscriber buffer was full
	droppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcpolicy_dropped_events_total",
		Help: "Total events dropped per subscriber because its buffer was full",
	}, []string{"subscriber"})
)
