// Package metrics exposes the Prometheus instrumentation for the HTTP
// surface and the sign-in flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the registry and collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	signInsTotal       *prometheus.CounterVec
	registrationsTotal *prometheus.CounterVec
	rememberVerifies   *prometheus.CounterVec
}

// New builds a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanahead",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lanahead",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		signInsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanahead",
			Subsystem: "auth",
			Name:      "sign_ins_total",
			Help:      "Completed external sign-ins by site and outcome.",
		}, []string{"site", "outcome"}),
		registrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanahead",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Player registrations by originating site.",
		}, []string{"site"}),
		rememberVerifies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanahead",
			Subsystem: "auth",
			Name:      "remember_verifications_total",
			Help:      "Remember-me cookie verifications by outcome.",
		}, []string{"outcome"}),
	}

	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SignIn outcomes.
const (
	OutcomeSignedIn = "signed_in"
	OutcomeLinked   = "linked"
	OutcomePending  = "pending"
	OutcomeFailed   = "failed"
	OutcomeVerified = "verified"
	OutcomeRejected = "rejected"
)

// ObserveSignIn records a completed callback for a site.
func (m *Metrics) ObserveSignIn(site, outcome string) {
	m.signInsTotal.WithLabelValues(site, outcome).Inc()
}

// ObserveRegistration records a completed player registration.
func (m *Metrics) ObserveRegistration(site string) {
	m.registrationsTotal.WithLabelValues(site).Inc()
}

// ObserveRememberVerify records a remember-me cookie check.
func (m *Metrics) ObserveRememberVerify(outcome string) {
	m.rememberVerifies.WithLabelValues(outcome).Inc()
}
