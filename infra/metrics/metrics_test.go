package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpstream("latest", time.Now(), nil)
	m.ObserveUpstream("latest", time.Now(), errors.New("boom"))
	m.RecordConversion(OutcomeIdentity)
	m.RecordConversion(OutcomeIdentity)
	m.RecordCurrencyLoad(errors.New("boom"))
	m.OperationStarted()
	m.OperationStarted()
	m.OperationFinished()

	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("latest", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("latest", "error")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues(OutcomeIdentity)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CurrencyLoadsTotal.WithLabelValues(OutcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.InFlight), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("currencies", time.Now(), nil)
		m.RecordConversion(OutcomeSuccess)
		m.RecordCurrencyLoad(nil)
		m.OperationStarted()
		m.OperationFinished()
	})
}
