package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// Metrics holds the ledger's business metrics and implements
// usecase.MetricsRecorder.
type Metrics struct {
	EntriesAppended *prometheus.CounterVec
	Exchanges       *prometheus.CounterVec
	RatesSet        *prometheus.CounterVec
	RatesMissing    *prometheus.CounterVec
	Reconciliations *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_entries_appended_total",
				Help: "Total ledger entries appended by kind",
			},
			[]string{"kind"},
		),
		Exchanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_exchanges_total",
				Help: "Total completed exchanges by currency pair",
			},
			[]string{"from", "to"},
		),
		RatesSet: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_rates_set_total",
				Help: "Total rate observations recorded by currency",
			},
			[]string{"currency"},
		),
		RatesMissing: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_rate_lookups_missing_total",
				Help: "Total rate lookups that found no observation",
			},
			[]string{"currency"},
		),
		Reconciliations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_reconciliations_total",
				Help: "Total reconciliations by direction",
			},
			[]string{"direction"},
		),
	}
}

func (m *Metrics) EntryAppended(kind domain.Kind) {
	m.EntriesAppended.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ExchangeCompleted(fromCurrency, toCurrency string) {
	m.Exchanges.WithLabelValues(fromCurrency, toCurrency).Inc()
}

func (m *Metrics) RateSet(currency string) {
	m.RatesSet.WithLabelValues(currency).Inc()
}

func (m *Metrics) RateMissing(currency string) {
	m.RatesMissing.WithLabelValues(currency).Inc()
}

func (m *Metrics) Reconciled(direction string) {
	m.Reconciliations.WithLabelValues(direction).Inc()
}
