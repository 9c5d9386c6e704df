package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the topology service.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
	fixtureLoadsTotal     *prometheus.CounterVec
	fixtureFailuresTotal  *prometheus.CounterVec
	fixtureCacheHitsTotal prometheus.Counter
	playbackTicksTotal    prometheus.Counter
	playbacksFinished     prometheus.Counter
	activeViews           prometheus.Gauge
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topology_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topology_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	fixtureLoadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_fixture_loads_total",
		Help: "Fixture files read from the data source, by file",
	}, []string{"file"})
	fixtureFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_fixture_load_failures_total",
		Help: "Fixture loads that failed, by file and kind",
	}, []string{"file", "kind"})
	fixtureCacheHitsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topology_fixture_cache_hits_total",
		Help: "Fixture requests served from the in-memory cache",
	})
	playbackTicksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topology_playback_ticks_total",
		Help: "Playback clock ticks applied across all views",
	})
	playbacksFinished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topology_playbacks_finished_total",
		Help: "Playbacks that ran until the end of the conversation",
	})
	activeViews := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_active_views",
		Help: "Number of mounted views",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		fixtureLoadsTotal,
		fixtureFailuresTotal,
		fixtureCacheHitsTotal,
		playbackTicksTotal,
		playbacksFinished,
		activeViews,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		errorsTotal:           errorsTotal,
		fixtureLoadsTotal:     fixtureLoadsTotal,
		fixtureFailuresTotal:  fixtureFailuresTotal,
		fixtureCacheHitsTotal: fixtureCacheHitsTotal,
		playbackTicksTotal:    playbackTicksTotal,
		playbacksFinished:     playbacksFinished,
		activeViews:           activeViews,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncFixtureLoads records a read of file from the data source.
func (m *Metrics) IncFixtureLoads(file string) {
	m.fixtureLoadsTotal.WithLabelValues(file).Inc()
}

// IncFixtureFailures records a failed load of file.
func (m *Metrics) IncFixtureFailures(file, kind string) {
	m.fixtureFailuresTotal.WithLabelValues(file, kind).Inc()
}

// IncFixtureCacheHits increments the cache hit counter.
func (m *Metrics) IncFixtureCacheHits() {
	m.fixtureCacheHitsTotal.Inc()
}

// IncPlaybackTicks increments the tick counter.
func (m *Metrics) IncPlaybackTicks() {
	m.playbackTicksTotal.Inc()
}

// IncPlaybacksFinished increments the finished playback counter.
func (m *Metrics) IncPlaybacksFinished() {
	m.playbacksFinished.Inc()
}

// SetActiveViews sets the mounted views gauge.
func (m *Metrics) SetActiveViews(n int) {
	m.activeViews.Set(float64(n))
}

// Registry exposes the underlying registry (used by tests to gather values).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active views).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
