package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// One registration per process against the default registry
	m := NewMetrics("willybot_test")

	m.RecordInteraction("willybot", "ok")
	m.RecordInteraction("willybot", "ok")
	m.RecordInteraction("willytts", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Interactions.WithLabelValues("willybot", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Interactions.WithLabelValues("willytts", "error")))

	m.ActiveVoiceSessions.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveVoiceSessions))

	m.VoiceTeardowns.WithLabelValues("superseded").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VoiceTeardowns.WithLabelValues("superseded")))

	m.WebhookErrors.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookErrors))

	m.ObserveSynthesisLatency(1500 * time.Millisecond)
	count := testutil.CollectAndCount(m.SynthesisLatency, "willybot_test_synthesis_latency_ms")
	assert.Equal(t, 1, count)
}
