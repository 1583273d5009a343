package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	metricPrefix = "cod_ledger_"

	ResultSuccess  = "success"
	ResultRejected = "rejected" // error de negocio del llamador
	ResultError    = "error"    // infraestructura
)

var (
	registerOnce sync.Once

	transitionsTotal *prometheus.CounterVec

	remittanceTotal   *prometheus.CounterVec
	remittanceLatency *prometheus.HistogramVec
	remittanceAmount  prometheus.Counter
	remittanceItems   prometheus.Histogram

	clearingTotal    *prometheus.CounterVec
	clearingReverted prometheus.Counter
)

// Init registra las métricas del ledger en el registro indicado (nil = DefaultRegisterer).
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		transitionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_transitions_total",
				Help: "Total COD record transitions by event and result",
			},
			[]string{"event", "result"},
		)
		remittanceTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "remittance_create_total",
				Help: "Total remittance create operations by result",
			},
			[]string{"result"},
		)
		remittanceLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "remittance_create_latency_seconds",
				Help:    "Remittance create latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		remittanceAmount = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "remitted_amount_total",
				Help: "Sum of collected amounts remitted to clients",
			},
		)
		remittanceItems = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "remittance_items",
				Help:    "Number of COD records per remittance",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
		)
		clearingTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "clearing_total",
				Help: "Total clear-all-remittances runs by result",
			},
			[]string{"result"},
		)
		clearingReverted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "clearing_records_reverted_total",
				Help: "COD records reverted from remitted to collected by clearing",
			},
		)

		reg.MustRegister(
			transitionsTotal,
			remittanceTotal,
			remittanceLatency,
			remittanceAmount,
			remittanceItems,
			clearingTotal,
			clearingReverted,
		)
	})
}

// ObserveTransition cuenta una transición de registro.
func ObserveTransition(event, result string) {
	if transitionsTotal != nil {
		transitionsTotal.WithLabelValues(event, result).Inc()
	}
}

// ObserveRemittance registra la creación de una remesa.
func ObserveRemittance(result string, duration time.Duration, items int, total decimal.Decimal) {
	if remittanceTotal != nil {
		remittanceTotal.WithLabelValues(result).Inc()
	}
	if remittanceLatency != nil {
		remittanceLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if result != ResultSuccess {
		return
	}
	if remittanceAmount != nil {
		remittanceAmount.Add(total.InexactFloat64())
	}
	if remittanceItems != nil {
		remittanceItems.Observe(float64(items))
	}
}

// ObserveClearing registra una ejecución de limpieza.
func ObserveClearing(result string, reverted int) {
	if clearingTotal != nil {
		clearingTotal.WithLabelValues(result).Inc()
	}
	if result == ResultSuccess && clearingReverted != nil {
		clearingReverted.Add(float64(reverted))
	}
}
