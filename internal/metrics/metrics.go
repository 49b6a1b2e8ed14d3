// Package metrics holds the Prometheus collectors for the HTTP surface and the
// ledger. All collectors live on a private registry so tests can build as many
// instances as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/templui/stash/internal/model"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	authRejections  *prometheus.CounterVec
	goalsCreated    prometheus.Counter
	sacrificeLogs   *prometheus.CounterVec
	savedCents      prometheus.Counter
	conflictRetries prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_rejections_total",
				Help: "Total number of unauthorized requests",
			},
			[]string{"reason"},
		),
		goalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_goals_created_total",
			Help: "Goals created",
		}),
		sacrificeLogs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_sacrifices_logged_total",
				Help: "Sacrifice logs by upsert branch",
			},
			[]string{"branch"},
		),
		savedCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_saved_cents_total",
			Help: "Cents credited to accounts",
		}),
		conflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_conflict_retries_total",
			Help: "Transactions retried after a write conflict",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.authRejections,
		m.goalsCreated,
		m.sacrificeLogs,
		m.savedCents,
		m.conflictRetries,
	)

	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The recorders below are nil-safe so callers can run without metrics.

func (m *Metrics) ObserveRequest(path, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(d.Seconds())
}

func (m *Metrics) AuthRejected(reason string) {
	if m == nil {
		return
	}
	m.authRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) GoalCreated() {
	if m == nil {
		return
	}
	m.goalsCreated.Inc()
}

func (m *Metrics) SacrificeLogged(created bool, amount model.Money) {
	if m == nil {
		return
	}
	branch := "repeated"
	if created {
		branch = "created"
	}
	m.sacrificeLogs.WithLabelValues(branch).Inc()
	m.savedCents.Add(float64(amount))
}

func (m *Metrics) ConflictRetried() {
	if m == nil {
		return
	}
	m.conflictRetries.Inc()
}
