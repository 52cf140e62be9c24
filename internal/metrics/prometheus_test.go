package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample returns the summed value of every series in the named family.
func sample(t *testing.T, pmc *PrometheusMetricsCollector, name string) float64 {
	t.Helper()
	families, err := pmc.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		return total
	}
	return 0
}

func TestCountersAndGauges(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("smscsim", nil)

	pmc.IncCounter("pdus_total", map[string]string{"direction": "in", "command": "submit_sm"})
	pmc.IncCounter("pdus_total", map[string]string{"direction": "out", "command": "submit_sm_resp"})
	pmc.IncCounter("binds_total", map[string]string{"bind_type": "transceiver", "result": "ok"})
	pmc.IncCounter("forced_unbinds_total", nil)
	pmc.IncCounter("connections_rejected_total", nil)
	pmc.SetGauge("active_sessions", 3, nil)
	pmc.SetGauge("queued_messages", 7, nil)

	assert.Equal(t, 2.0, sample(t, pmc, "smscsim_pdus_total"))
	assert.Equal(t, 1.0, sample(t, pmc, "smscsim_binds_total"))
	assert.Equal(t, 1.0, sample(t, pmc, "smscsim_forced_unbinds_total"))
	assert.Equal(t, 1.0, sample(t, pmc, "smscsim_connections_rejected_total"))
	assert.Equal(t, 3.0, sample(t, pmc, "smscsim_active_sessions"))
	assert.Equal(t, 7.0, sample(t, pmc, "smscsim_queued_messages"))
}

func TestRecordDurationFeedsTickHistogram(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("smscsim", nil)

	pmc.RecordDuration("tick", 2*time.Millisecond, nil)
	pmc.RecordDuration("tick", 3*time.Millisecond, nil)
	assert.Equal(t, 2.0, sample(t, pmc, "smscsim_tick_duration_seconds"))
}

func TestUnknownMetricIsIgnored(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("smscsim", nil)

	assert.NotPanics(t, func() {
		pmc.IncCounter("no_such_counter", nil)
		pmc.SetGauge("no_such_gauge", 1, nil)
		pmc.ObserveHistogram("no_such_histogram", 1, nil)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("smscsim", nil)
	pmc.IncCounter("submits_total", map[string]string{"status": "0x00000000"})

	rec := httptest.NewRecorder()
	pmc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `smscsim_submits_total{status="0x00000000"} 1`)
}

func TestStartAndStop(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("smscsim", nil)
	require.NoError(t, pmc.Start("127.0.0.1", 0, "/metrics"))
	assert.NoError(t, pmc.Stop(t.Context()))
}
