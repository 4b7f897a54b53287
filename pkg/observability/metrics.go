package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	ResolutionState    *prometheus.GaugeVec
	StaleResultsTotal  prometheus.Counter

	// Credential store metrics
	CredentialEventsTotal *prometheus.CounterVec
	SessionsActive        prometheus.Gauge
	SessionsPurgedTotal   prometheus.Counter

	// Route guard metrics
	GuardDecisionsTotal *prometheus.CounterVec

	// Profile cache metrics
	ProfileCacheHitsTotal   prometheus.Counter
	ProfileCacheMissesTotal prometheus.Counter

	registry *prometheus.Registry
}

// Resolution outcome label values.
const (
	OutcomeReady    = "ready"
	OutcomeNotFound = "degraded_not_found"
	OutcomeError    = "degraded_error"
	OutcomeTimeout  = "degraded_timeout"
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendi_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atendi_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendi_profile_resolutions_total",
				Help: "Profile fetch outcomes by result",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "atendi_profile_resolution_duration_seconds",
				Help:    "Time from fetch start to state transition",
				Buckets: prometheus.DefBuckets,
			},
		),
		ResolutionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "atendi_resolution_state",
				Help: "Current resolution state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		StaleResultsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atendi_stale_fetch_results_total",
				Help: "Fetch results discarded because their epoch had moved on",
			},
		),
		CredentialEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendi_credential_events_total",
				Help: "Credential store events by type",
			},
			[]string{"type"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "atendi_sessions_active",
				Help: "Number of unexpired sessions in the credential store",
			},
		),
		SessionsPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atendi_sessions_purged_total",
				Help: "Expired sessions removed by the purge job",
			},
		),
		GuardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendi_guard_decisions_total",
				Help: "Route guard decisions by action",
			},
			[]string{"action"},
		),
		ProfileCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atendi_profile_cache_hits_total",
				Help: "Profile reads served from cache",
			},
		),
		ProfileCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atendi_profile_cache_misses_total",
				Help: "Profile reads that fell through to the store",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.ResolutionState,
		m.StaleResultsTotal,
		m.CredentialEventsTotal,
		m.SessionsActive,
		m.SessionsPurgedTotal,
		m.GuardDecisionsTotal,
		m.ProfileCacheHitsTotal,
		m.ProfileCacheMissesTotal,
	)

	return m
}

// SetResolutionState flips the state gauge so exactly one label reads 1.
func (m *Metrics) SetResolutionState(current string) {
	for _, s := range []string{"unauthenticated", "resolving", "ready", "degraded"} {
		v := 0.0
		if s == current {
			v = 1.0
		}
		m.ResolutionState.WithLabelValues(s).Set(v)
	}
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments HTTP requests with counters and duration histograms
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
