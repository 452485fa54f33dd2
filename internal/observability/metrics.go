package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot.
type Metrics struct {
	Interactions        *prometheus.CounterVec
	ActiveVoiceSessions prometheus.Gauge
	SynthesisLatency    prometheus.Histogram
	WebhookErrors       prometheus.Counter
	VoiceTeardowns      *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Interactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Handled interactions by command and outcome.",
		}, []string{"command", "outcome"}),
		ActiveVoiceSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_voice_sessions",
			Help:      "Number of live voice sessions across all guilds.",
		}),
		SynthesisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_latency_ms",
			Help:      "Latency of speech synthesis requests in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		}),
		WebhookErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_errors_total",
			Help:      "Automation webhook transport failures.",
		}),
		VoiceTeardowns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_teardowns_total",
			Help:      "Voice session teardowns by reason.",
		}, []string{"reason"}),
	}
}

// ObserveSynthesisLatency records one synthesis round trip.
func (m *Metrics) ObserveSynthesisLatency(d time.Duration) {
	m.SynthesisLatency.Observe(float64(d.Milliseconds()))
}

// RecordInteraction counts a handled interaction.
func (m *Metrics) RecordInteraction(cmd, outcome string) {
	m.Interactions.WithLabelValues(cmd, outcome).Inc()
}

// MetricsHandler exposes the default registry for the status server.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
