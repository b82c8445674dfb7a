package label

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombor/label-dates/internal/dates"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Metrics holds the Prometheus collectors for label processing. Each
// instance owns its registry so several services can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	uploads      *prometheus.CounterVec
	scanDuration *prometheus.HistogramVec
	roles        *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "label_dates",
			Name:      "uploads_total",
			Help:      "Label uploads by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "label_dates",
			Name:      "scan_duration_seconds",
			Help:      "Time spent reading text from label images.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"scanner"}),
		roles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "label_dates",
			Name:      "roles_total",
			Help:      "Date roles assigned, split by whether the date parsed.",
		}, []string{"role", "parsed"}),
	}
	m.registry.MustRegister(
		m.uploads,
		m.scanDuration,
		m.roles,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeUpload(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeScan(scanner string, d time.Duration) {
	m.scanDuration.WithLabelValues(scanner).Observe(d.Seconds())
}

func (m *Metrics) observeRoles(roles dates.Roles) {
	for role, value := range roles {
		parsed := "true"
		if value == dates.Unparseable {
			parsed = "false"
		}
		m.roles.WithLabelValues(role, parsed).Inc()
	}
}
