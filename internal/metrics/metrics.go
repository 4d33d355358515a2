// Package metrics exposes Prometheus collectors for the playback pipeline.
//
// A nil *Metrics is valid and records nothing, so components can take one
// optionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/llehouerou/wavestream/internal/resource"
)

const namespace = "wavestream"

// Fetch results used as the "result" label.
const (
	FetchOK              = "ok"
	FetchUnauthenticated = "unauthenticated"
	FetchRemoteError     = "remote_error"
	FetchEmpty           = "empty"
	FetchTooLarge        = "too_large"
	FetchCanceled        = "canceled"
	FetchNetwork         = "network"
)

type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal     *prometheus.CounterVec
	FetchBytesTotal  prometheus.Counter
	FetchDuration    prometheus.Histogram
	LoadErrorsTotal  *prometheus.CounterVec
	StaleLoadsTotal  prometheus.Counter
	TransitionsTotal *prometheus.CounterVec
	LiveResources    prometheus.Gauge
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetches_total",
				Help:      "Audio fetches from the streaming endpoint by result",
			},
			[]string{"result"},
		),
		FetchBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_bytes_total",
				Help:      "Audio bytes received from the streaming endpoint",
			},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Time spent fetching a track payload",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		LoadErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_errors_total",
				Help:      "Failed load attempts by error kind",
			},
			[]string{"kind"},
		),
		StaleLoadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_loads_total",
				Help:      "Load results dropped because a newer load superseded them",
			},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Playback state transitions by target state",
			},
			[]string{"state"},
		),
		LiveResources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_resources",
				Help:      "Fetched audio resources not yet released",
			},
		),
	}

	m.registry.MustRegister(
		m.FetchesTotal,
		m.FetchBytesTotal,
		m.FetchDuration,
		m.LoadErrorsTotal,
		m.StaleLoadsTotal,
		m.TransitionsTotal,
		m.LiveResources,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordFetch(result string, bytes int, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	if bytes > 0 {
		m.FetchBytesTotal.Add(float64(bytes))
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordLoadError(kind string) {
	if m == nil {
		return
	}
	m.LoadErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordStale() {
	if m == nil {
		return
	}
	m.StaleLoadsTotal.Inc()
}

func (m *Metrics) RecordTransition(state string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) SetLiveResources(n int) {
	if m == nil {
		return
	}
	m.LiveResources.Set(float64(n))
}

// WatchStore exports the allocation counters of store. They are read at
// scrape time.
func (m *Metrics) WatchStore(store *resource.Store) {
	if m == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_created_total",
				Help:      "Audio resources created since start",
			},
			func() float64 { return float64(store.Stats().Created) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_released_total",
				Help:      "Audio resources released since start",
			},
			func() float64 { return float64(store.Stats().Released) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_resource_bytes",
				Help:      "Bytes held by audio resources not yet released",
			},
			func() float64 { return float64(store.Stats().LiveSize) },
		),
	)
}
