package metrics_test

import (
	"testing"
	"time"

	"github.com/jhoicas/cod-remittance-api/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Init(reg)
	// Segunda llamada no vuelve a registrar.
	metrics.Init(reg)

	metrics.ObserveTransition("collect", metrics.ResultSuccess)
	metrics.ObserveTransition("collect", metrics.ResultRejected)
	metrics.ObserveRemittance(metrics.ResultSuccess, 30*time.Millisecond, 3, decimal.RequireFromString("150.50"))
	metrics.ObserveRemittance(metrics.ResultRejected, time.Millisecond, 2, decimal.RequireFromString("99"))
	metrics.ObserveClearing(metrics.ResultSuccess, 3)
	metrics.ObserveClearing(metrics.ResultError, 7)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[f.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				values[f.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, values["cod_ledger_record_transitions_total"])
	assert.Equal(t, 2.0, values["cod_ledger_remittance_create_total"])
	assert.Equal(t, 2.0, values["cod_ledger_remittance_create_latency_seconds"])
	// Solo la remesa exitosa suma monto e ítems.
	assert.InDelta(t, 150.50, values["cod_ledger_remitted_amount_total"], 0.001)
	assert.Equal(t, 1.0, values["cod_ledger_remittance_items"])
	assert.Equal(t, 2.0, values["cod_ledger_clearing_total"])
	assert.Equal(t, 3.0, values["cod_ledger_clearing_records_reverted_total"])

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "cod_ledger_remitted_amount_total"))
}
