package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for dashboard builds.
type Metrics struct {
	// Upstream provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider={openweather,openmeteo}, outcome={success,error,not_found}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	LocationCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// Dashboard metrics.
	DashboardsBuilt *prometheus.CounterVec // labels: source={city,coordinates,fallback}
	DashboardErrors prometheus.Counter
	AQIResults      *prometheus.CounterVec // labels: status, severity
	PublishErrors   prometheus.Counter
	WatchRunning    prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Weather provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		LocationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_cache_total",
			Help:      "City lookup cache results.",
		}, []string{"result"}),
		DashboardsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboards_built_total",
			Help:      "Dashboards built by location source.",
		}, []string{"source"}),
		DashboardErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_errors_total",
			Help:      "Dashboard requests that failed without a fallback.",
		}),
		AQIResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aqi_results_total",
			Help:      "Air quality calculations by status and severity.",
		}, []string{"status", "severity"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Dashboard snapshots that failed to publish.",
		}),
		WatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_running",
			Help:      "1 while the refresh loop is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.LocationCache,
		m.DashboardsBuilt,
		m.DashboardErrors,
		m.AQIResults,
		m.PublishErrors,
		m.WatchRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "provider_request_duration_seconds"}, []string{"provider"}),
		LocationCache:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "location_cache_total"}, []string{"result"}),
		DashboardsBuilt:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "dashboards_built_total"}, []string{"source"}),
		DashboardErrors:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "dashboard_errors_total"}),
		AQIResults:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "aqi_results_total"}, []string{"status", "severity"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "publish_errors_total"}),
		WatchRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "watch_running"}),
	}
}
