// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the marketplace collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	purchases      *prometheus.CounterVec
	revenue        *prometheus.CounterVec
	paymentLatency *prometheus.HistogramVec
	withdrawals    *prometheus.CounterVec
	ratings        *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beatmarket",
			Subsystem: "licensing",
			Name:      "purchases_total",
			Help:      "License purchase attempts segmented by license type and outcome.",
		}, []string{"license_type", "outcome"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beatmarket",
			Subsystem: "licensing",
			Name:      "revenue_canonical_total",
			Help:      "Gross revenue recorded by completed purchases in canonical currency.",
		}, []string{"license_type"}),
		paymentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "beatmarket",
			Subsystem: "payments",
			Name:      "charge_duration_seconds",
			Help:      "Latency of payment collaborator calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beatmarket",
			Subsystem: "earnings",
			Name:      "withdrawals_total",
			Help:      "Withdrawal requests and settlements segmented by status.",
		}, []string{"status"}),
		ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beatmarket",
			Subsystem: "ratings",
			Name:      "updates_total",
			Help:      "Rating submissions segmented by whether they replaced a prior value.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beatmarket",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests segmented by route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "beatmarket",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.purchases,
		m.revenue,
		m.paymentLatency,
		m.withdrawals,
		m.ratings,
		m.httpRequests,
		m.httpLatency,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePurchase(licenseType, outcome string, amount float64) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(licenseType, outcome).Inc()
	if outcome == "completed" && amount > 0 {
		m.revenue.WithLabelValues(licenseType).Add(amount)
	}
}

func (m *Metrics) ObservePayment(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.paymentLatency.WithLabelValues(method, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveWithdrawal(status string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveRating(replaced bool) {
	if m == nil {
		return
	}
	kind := "new"
	if replaced {
		kind = "replaced"
	}
	m.ratings.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
