// Package metrics exposes prometheus instrumentation for the ledger daemon.
package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics aggregates the command counters and supply gauge registered
// with the default prometheus registry.
type LedgerMetrics struct {
	commandsTotal *prometheus.CounterVec
	eventsTotal   *prometheus.CounterVec
	totalSupply   prometheus.Gauge
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them on first
// use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "entd_commands_total",
				Help: "Count of ledger commands by operation and outcome.",
			}, []string{"op", "outcome"}),
			eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "entd_events_total",
				Help: "Count of emitted ledger events by type.",
			}, []string{"type"}),
			totalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "entd_total_supply",
				Help: "Current total token supply in base units.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.commandsTotal,
			ledgerRegistry.eventsTotal,
			ledgerRegistry.totalSupply,
		)
	})
	return ledgerRegistry
}

// ObserveCommand records a command outcome. The outcome is "ok" for accepted
// commands and the taxonomy code for rejections.
func (m *LedgerMetrics) ObserveCommand(op, outcome string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.commandsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveEvent records an emitted event by type.
func (m *LedgerMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.eventsTotal.WithLabelValues(eventType).Inc()
}

// SetTotalSupply updates the supply gauge. Supplies beyond float precision
// degrade gracefully to the nearest representable value.
func (m *LedgerMetrics) SetTotalSupply(supply *big.Int) {
	if m == nil || supply == nil {
		return
	}
	value, _ := new(big.Float).SetInt(supply).Float64()
	m.totalSupply.Set(value)
}
