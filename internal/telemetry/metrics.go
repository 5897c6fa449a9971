/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing for
// the playout engine.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rotation selection metrics.
	SelectionAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airloom_rotation_selection_attempts_total",
		Help: "Track selection requests made against the rotation engine.",
	})
	SelectionDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airloom_rotation_selection_degraded_total",
		Help: "Selections that fell through to the relaxed rule set.",
	})
	SelectionExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airloom_rotation_selection_exhausted_total",
		Help: "Selections where even the relaxed rules found no candidate.",
	})

	// Hour-block assembly metrics.
	HourAssemblyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "airloom_assembler_hour_build_seconds",
		Help:    "Wall-clock time to assemble one hour block.",
		Buckets: prometheus.DefBuckets,
	})
	AssembledItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airloom_assembler_items_total",
		Help: "Items appended to hour-block plans, by segment kind.",
	}, []string{"kind"})
	DegradedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airloom_assembler_degraded_items_total",
		Help: "Plan entries skipped or downgraded during assembly, by reason.",
	}, []string{"reason"})
	CollaboratorFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airloom_collaborator_failures_total",
		Help: "Failed calls to external content, voice, and mixing collaborators.",
	}, []string{"collaborator"})

	// Schedule watcher metrics.
	WatcherTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airloom_watcher_ticks_total",
		Help: "Schedule watcher polling iterations.",
	})

	// HTTP metrics for the operational API.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airloom_api_requests_total",
		Help: "HTTP requests served, by method, endpoint, and status.",
	}, []string{"method", "endpoint", "status"})
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "airloom_api_request_duration_seconds",
		Help:    "HTTP request latency, by method, endpoint, and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airloom_api_active_connections",
		Help: "In-flight HTTP requests.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
