// Package metrics exposes the engine's Prometheus metrics: bars processed,
// orders by status, trades by result, resample emits, and live gauges for
// cash/value/position count. Registered once at package init and served by
// the HTTP handler started in cmd/backtrader's main.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BarsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtrader_bars_processed_total",
			Help: "Bars processed by the engine, per data feed.",
		},
		[]string{"data"},
	)

	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtrader_orders_total",
			Help: "Order status notifications, by status and side.",
		},
		[]string{"status", "side"},
	)

	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtrader_trades_total",
			Help: "Closed trades by result (win|loss|scratch).",
		},
		[]string{"result"},
	)

	ResampleEmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtrader_resample_emits_total",
			Help: "Higher-timeframe bars emitted by resamplers, per data feed.",
		},
		[]string{"data"},
	)

	Cash = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtrader_cash",
			Help: "Current broker cash balance.",
		},
	)

	Value = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtrader_value",
			Help: "Current broker total value (cash + marked positions).",
		},
	)

	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtrader_open_positions",
			Help: "Number of instruments with a nonzero position.",
		},
	)

	MarginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backtrader_margin_failures_total",
			Help: "Orders rejected at fill time for insufficient cash/margin.",
		},
	)
)

func init() {
	prometheus.MustRegister(BarsProcessed, OrdersTotal, TradesTotal, ResampleEmits)
	prometheus.MustRegister(Cash, Value, OpenPositions, MarginFailures)
}

// IncBar records one processed bar for a data feed.
func IncBar(dataRef string) { BarsProcessed.WithLabelValues(dataRef).Inc() }

// ObserveOrderStatus records an order reaching status for side.
func ObserveOrderStatus(status, side string) { OrdersTotal.WithLabelValues(status, side).Inc() }

// ObserveTradeResult records a closed trade's result.
func ObserveTradeResult(result string) { TradesTotal.WithLabelValues(result).Inc() }

// IncResampleEmit records one emitted higher-timeframe bar for a data feed.
func IncResampleEmit(dataRef string) { ResampleEmits.WithLabelValues(dataRef).Inc() }

// SetAccount updates the cash/value gauges.
func SetAccount(cash, value float64) {
	Cash.Set(cash)
	Value.Set(value)
}

// SetOpenPositions updates the open-position-count gauge.
func SetOpenPositions(n int) { OpenPositions.Set(float64(n)) }

// IncMarginFailure records one fill rejected for insufficient cash/margin.
func IncMarginFailure() { MarginFailures.Inc() }
