// Package metrics holds the Prometheus collectors for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/squidgame/internal/model"
)

const namespace = "sqgame"

// Join outcomes
const (
	JoinAccepted = "accepted"
	JoinRejected = "rejected"
	JoinFailed   = "failed"
)

// Photo upload outcomes
const (
	PhotoStored   = "stored"
	PhotoRejected = "rejected"
	PhotoFailed   = "failed"
)

// Live view kinds
const (
	ViewTV     = "tv"
	ViewManage = "manage"
	ViewFeed   = "feed"
)

// Metrics is the set of collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	feedEvents      *prometheus.CounterVec
	joins           *prometheus.CounterVec
	photoUploads    *prometheus.CounterVec
	liveViews       *prometheus.GaugeVec
	requestDuration *prometheus.HistogramVec
	panics          *prometheus.CounterVec
}

// New creates the collectors and registers them with runtime collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		feedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_published_total",
			Help:      "Change-feed events published, by change type",
		}, []string{"type"}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_total",
			Help:      "Self-service join attempts, by outcome",
		}, []string{"outcome"}),
		photoUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Player photo uploads, by outcome",
		}, []string{"outcome"}),
		liveViews: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Connected live views, by kind",
		}, []string{"kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"surface", "method", "code"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered, by surface",
		}, []string{"surface"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.feedEvents,
		m.joins,
		m.photoUploads,
		m.liveViews,
		m.requestDuration,
		m.panics,
	)
	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) FeedEventPublished(t model.ChangeType) {
	if m == nil {
		return
	}
	m.feedEvents.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) Join(outcome string) {
	if m == nil {
		return
	}
	m.joins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PhotoUpload(outcome string) {
	if m == nil {
		return
	}
	m.photoUploads.WithLabelValues(outcome).Inc()
}

// ViewOpened counts a live view and returns the func that uncounts it
func (m *Metrics) ViewOpened(kind string) func() {
	if m == nil {
		return func() {}
	}
	g := m.liveViews.WithLabelValues(kind)
	g.Inc()
	return g.Dec
}

func (m *Metrics) ObserveRequest(surface, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(surface, method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) Panic(surface string) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(surface).Inc()
}
