// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metrics exposes Prometheus counters for the hybrid engine and the
// document server.
//
// Every *Metrics owns its registry, so several instances (one per test, or a
// client and a server in one process) never collide. All recording methods
// are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dockeeper"

// Find delivery sources.
const (
	SourceInterim = "interim"
	SourceRemote  = "remote"
	SourceLocal   = "local_fallback"
)

// Upload outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeGone      = "gone"
	OutcomeForbidden = "forbidden"
	OutcomeError     = "error"
)

// Upload kinds.
const (
	KindUpsert = "upsert"
	KindRemove = "remove"
)

type Metrics struct {
	registry *prometheus.Registry

	findResults    *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
	lateResults    *prometheus.CounterVec
	uploads        *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers every collector, plus the Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		findResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hybrid",
			Name:      "find_results_total",
			Help:      "Results delivered by hybrid finds, by source",
		}, []string{"collection", "source"}),
		remoteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hybrid",
			Name:      "remote_failures_total",
			Help:      "Failed or timed out remote calls",
		}, []string{"collection", "op"}),
		lateResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hybrid",
			Name:      "late_remote_results_total",
			Help:      "Remote results that arrived after the read timeout",
		}, []string{"collection"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hybrid",
			Name:      "uploads_total",
			Help:      "Uploaded pending changes, by kind and outcome",
		}, []string{"collection", "kind", "outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Handled HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) FindDelivered(collection, source string) {
	if m == nil {
		return
	}
	m.findResults.WithLabelValues(collection, source).Inc()
}

func (m *Metrics) RemoteFailed(collection, op string) {
	if m == nil {
		return
	}
	m.remoteFailures.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) LateRemoteResult(collection string) {
	if m == nil {
		return
	}
	m.lateResults.WithLabelValues(collection).Inc()
}

func (m *Metrics) Uploaded(collection, kind, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(collection, kind, outcome).Inc()
}

// ObserveRequest records one handled request. route is the route pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
