package prometheus

import (
	"net/http"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements port.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	ActiveCalls          prometheus.Gauge
	CallsStarted         prometheus.Counter
	CallsEnded           prometheus.Counter
	CallDuration         prometheus.Histogram
	Messages             *prometheus.CounterVec
	TimersCancelledTotal prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveCalls: f.NewGauge(prometheus.GaugeOpts{
			Name: "voicetext_active_calls",
			Help: "Calls between dialing and hang up",
		}),
		CallsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "voicetext_calls_started_total",
			Help: "Total number of calls started",
		}),
		CallsEnded: f.NewCounter(prometheus.CounterOpts{
			Name: "voicetext_calls_ended_total",
			Help: "Total number of calls hung up",
		}),
		CallDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicetext_call_duration_seconds",
			Help:    "Duration of calls from dialing to hang up",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicetext_messages_total",
			Help: "Messages appended to call timelines",
		}, []string{"speaker"}),
		TimersCancelledTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "voicetext_timers_cancelled_total",
			Help: "Pending replies and transitions cancelled by hang up or shutdown",
		}),
	}
}

func (m *Metrics) CallStarted() {
	m.ActiveCalls.Inc()
	m.CallsStarted.Inc()
}

func (m *Metrics) CallEnded(d time.Duration) {
	m.ActiveCalls.Dec()
	m.CallsEnded.Inc()
	m.CallDuration.Observe(d.Seconds())
}

func (m *Metrics) MessageAppended(speaker domain.Speaker) {
	m.Messages.WithLabelValues(string(speaker)).Inc()
}

func (m *Metrics) TimersCancelled(n int) {
	if n > 0 {
		m.TimersCancelledTotal.Add(float64(n))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
