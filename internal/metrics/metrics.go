// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package metrics provides Prometheus instrumentation for ingestion,
// reconciliation, the audit log, and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhooksReceived counts inbound webhook deliveries by action type.
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invintus_webhooks_received_total",
			Help: "Total number of inbound Invintus webhook deliveries",
		},
		[]string{"action"},
	)

	// ReconcileOperations counts completed reconcile operations by outcome.
	ReconcileOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invintus_reconcile_operations_total",
			Help: "Total number of completed reconcile operations",
		},
		[]string{"op"}, // insert, update, delete, noop
	)

	// ReconcileErrors counts reconcile failures by stable error code.
	ReconcileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invintus_reconcile_errors_total",
			Help: "Total number of reconcile failures",
		},
		[]string{"code"},
	)

	// ReconcileDuration observes end-to-end reconcile latency.
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invintus_reconcile_duration_seconds",
			Help:    "Duration of reconcile operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CategoryNodesCreated counts taxonomy nodes created by the category
	// reconciler.
	CategoryNodesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invintus_category_nodes_created_total",
			Help: "Total number of taxonomy nodes created",
		},
	)

	// AuditEntriesLogged counts audit rows written.
	AuditEntriesLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invintus_audit_entries_logged_total",
			Help: "Total number of audit log rows written",
		},
	)

	// AuditEntriesPruned counts audit rows removed by retention pruning.
	AuditEntriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invintus_audit_entries_pruned_total",
			Help: "Total number of audit log rows pruned by retention",
		},
	)

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invintus_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// APIActiveRequests gauges in-flight HTTP requests.
	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "invintus_api_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// UpstreamRequests counts outbound Invintus API calls by endpoint and
	// result.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invintus_upstream_requests_total",
			Help: "Total number of outbound Invintus API requests",
		},
		[]string{"endpoint", "result"}, // result: ok, error, cache_hit, open
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
