package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.PromoRedemption("ok")
	m.PromoRedemption("ok")
	m.PromoRedemption("expired")
	m.PaymentTransition("completed", true)
	m.PaymentTransition("failed", false)
	m.Notification("sent")
	m.PaymentCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.redemptions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redemptions.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("failed", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PromoRedemption("ok")
		m.PaymentCreated()
		m.PaymentTransition("completed", true)
		m.Notification("sent")
		m.SetQueueDepth(3)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Notification("dropped")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `diamond_shop_notifications_total{outcome="dropped"} 1`)
}
