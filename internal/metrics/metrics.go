// Package metrics exposes Prometheus instruments for the ledger service
// and the HTTP layer on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "igreja"

type Metrics struct {
	registry *prometheus.Registry

	saves        *prometheus.CounterVec
	saveErrors   *prometheus.CounterVec
	rows         *prometheus.GaugeVec
	degraded     *prometheus.GaugeVec
	paidCents    prometheus.Gauge
	cacheLookups *prometheus.CounterVec
	logins       *prometheus.CounterVec
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	events       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_saves_total",
			Help: "Ledger overwrites by ledger and operation.",
		}, []string{"ledger", "operation"}),
		saveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_save_errors_total",
			Help: "Rejected or failed ledger mutations.",
		}, []string{"ledger", "reason"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ledger_rows",
			Help: "Rows currently held per ledger.",
		}, []string{"ledger"}),
		degraded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ledger_degraded",
			Help: "1 when the ledger could not be read and is served read-only from defaults.",
		}, []string{"ledger"}),
		paidCents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tithes_paid_cents",
			Help: "Accumulated paid tithe amount in cents.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "view_cache_lookups_total",
			Help: "View cache lookups by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "admin_logins_total",
			Help: "Admin login attempts by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_events_total",
			Help: "ledger.saved events by direction and result.",
		}, []string{"direction", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.saves, m.saveErrors, m.rows, m.degraded, m.paidCents,
		m.cacheLookups, m.logins, m.requests, m.duration, m.events,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WatchSuspicious exports count as a counter of requests the security
// detector flagged. Only the first call registers.
func (m *Metrics) WatchSuspicious(count func() int64) {
	if m == nil {
		return
	}
	_ = m.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "suspicious_requests_total",
		Help: "Requests flagged by the security detector.",
	}, func() float64 { return float64(count()) }))
}

// All recorders accept a nil receiver so callers can run without metrics.

func (m *Metrics) LedgerSaved(ledger, op string, rows int) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(ledger, op).Inc()
	m.rows.WithLabelValues(ledger).Set(float64(rows))
}

func (m *Metrics) LedgerSaveFailed(ledger, reason string) {
	if m == nil {
		return
	}
	m.saveErrors.WithLabelValues(ledger, reason).Inc()
}

func (m *Metrics) LedgerLoaded(ledger string, rows int, degraded bool) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(ledger).Set(float64(rows))
	v := 0.0
	if degraded {
		v = 1
	}
	m.degraded.WithLabelValues(ledger).Set(v)
}

func (m *Metrics) PaidTotal(cents int64) {
	if m == nil {
		return
	}
	m.paidCents.Set(float64(cents))
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.logins.WithLabelValues("success").Inc()
		return
	}
	m.logins.WithLabelValues("failure").Inc()
}

func (m *Metrics) Event(direction string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.events.WithLabelValues(direction, result).Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}
