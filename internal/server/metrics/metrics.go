// Package metrics exposes chat server counters in the Prometheus format.
// Each Metrics owns its registry so tests can create as many as they like.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophchat"

type Metrics struct {
	registry *prometheus.Registry

	activeSessions prometheus.Gauge
	messagesSent   *prometheus.CounterVec
	framesDropped  prometheus.Counter
	loginAttempts  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of authenticated sessions registered with the hub.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Frames fanned out by the hub, control frames included.",
		}, []string{"kind"}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames not delivered because a recipient's outbound queue was full.",
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.activeSessions,
		m.messagesSent,
		m.framesDropped,
		m.loginAttempts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

func (m *Metrics) MessageSent(kind string) { m.messagesSent.WithLabelValues(kind).Inc() }

func (m *Metrics) FrameDropped() { m.framesDropped.Inc() }

func (m *Metrics) LoginAttempt(result string) { m.loginAttempts.WithLabelValues(result).Inc() }

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
