// Package metrics provides Prometheus metrics for the engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// EngineMetrics collects and exposes engine-related Prometheus metrics.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Scan metrics
	ScanRuns     *prometheus.CounterVec
	ScanDuration *prometheus.HistogramVec
	StageLatency *prometheus.HistogramVec

	// Feed metrics
	MatchesFetched *prometheus.CounterVec
	FeedErrors     *prometheus.CounterVec
	QuotaRemaining *prometheus.GaugeVec

	// Oracle metrics
	OracleCalls    *prometheus.CounterVec
	OracleLatency  *prometheus.HistogramVec
	OracleErrors   *prometheus.CounterVec
	WinProbability *prometheus.HistogramVec

	// Selection metrics
	ValueBets *prometheus.CounterVec
	SafeBets  *prometheus.CounterVec
	BetEV     *prometheus.HistogramVec

	// Settlement metrics
	SettlementsTotal *prometheus.CounterVec
	SettlementROI    *prometheus.GaugeVec
	PendingBets      *prometheus.GaugeVec

	// Streaming metrics
	ConnectedClients *prometheus.GaugeVec
	EventsPublished  *prometheus.CounterVec
}

// NewEngineMetrics creates a new engine metrics collector.
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	em := &EngineMetrics{
		registry: registry,

		ScanRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_scan_runs_total",
				Help: "Total number of scan runs",
			},
			[]string{"status"},
		),
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenntrend_scan_duration_seconds",
				Help:    "Duration of a full scan run",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
			},
			[]string{},
		),
		StageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenntrend_stage_latency_seconds",
				Help:    "Latency of individual scan stages",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"stage"},
		),

		MatchesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_matches_fetched_total",
				Help: "Matches returned by odds feeds",
			},
			[]string{"league"},
		),
		FeedErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_feed_errors_total",
				Help: "Upstream feed request failures",
			},
			[]string{"feed"},
		),
		QuotaRemaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tenntrend_feed_quota_remaining",
				Help: "Remaining request quota for a feed",
			},
			[]string{"feed"},
		),

		OracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_oracle_calls_total",
				Help: "Total oracle prediction calls",
			},
			[]string{"provider", "status"},
		),
		OracleLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenntrend_oracle_latency_seconds",
				Help:    "Oracle call latency",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"provider"},
		),
		OracleErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_oracle_errors_total",
				Help: "Oracle failures by type",
			},
			[]string{"provider", "error_type"},
		),
		WinProbability: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenntrend_win_probability",
				Help:    "Predicted home win probability",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"confidence"},
		),

		ValueBets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_value_bets_total",
				Help: "Value bets identified per run",
			},
			[]string{"tier"},
		),
		SafeBets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_safe_bets_total",
				Help: "Safe bets identified per run",
			},
			[]string{},
		),
		BetEV: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenntrend_bet_ev_percent",
				Help:    "Expected value of identified value bets",
				Buckets: []float64{3, 4, 5, 6, 8, 10, 15, 20, 30, 50},
			},
			[]string{"tier"},
		),

		SettlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_settlements_total",
				Help: "Settled bets by result",
			},
			[]string{"result"},
		),
		SettlementROI: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tenntrend_settlement_roi_units",
				Help: "Cumulative ROI in flat units",
			},
			[]string{},
		),
		PendingBets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tenntrend_pending_bets",
				Help: "Bets awaiting settlement",
			},
			[]string{},
		),

		ConnectedClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tenntrend_ws_clients",
				Help: "Connected WebSocket clients",
			},
			[]string{},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenntrend_ws_events_total",
				Help: "Events broadcast to clients",
			},
			[]string{"type"},
		),
	}

	registry.MustRegister(
		em.ScanRuns,
		em.ScanDuration,
		em.StageLatency,
		em.MatchesFetched,
		em.FeedErrors,
		em.QuotaRemaining,
		em.OracleCalls,
		em.OracleLatency,
		em.OracleErrors,
		em.WinProbability,
		em.ValueBets,
		em.SafeBets,
		em.BetEV,
		em.SettlementsTotal,
		em.SettlementROI,
		em.PendingBets,
		em.ConnectedClients,
		em.EventsPublished,
	)

	return em
}

// Registry returns the underlying Prometheus registry.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// RecordScan records a completed scan run.
func (em *EngineMetrics) RecordScan(status string, durationSec float64) {
	em.ScanRuns.WithLabelValues(status).Inc()
	if durationSec > 0 {
		em.ScanDuration.WithLabelValues().Observe(durationSec)
	}
}

// RecordStage records a stage execution.
func (em *EngineMetrics) RecordStage(stage string, durationSec float64) {
	em.StageLatency.WithLabelValues(stage).Observe(durationSec)
}

// RecordFetch records matches returned for a league.
func (em *EngineMetrics) RecordFetch(league string, count int) {
	em.MatchesFetched.WithLabelValues(league).Add(float64(count))
}

// RecordFeedError records an upstream feed failure.
func (em *EngineMetrics) RecordFeedError(feed string) {
	em.FeedErrors.WithLabelValues(feed).Inc()
}

// RecordOracleCall records a prediction call.
func (em *EngineMetrics) RecordOracleCall(provider, status string, latencySec float64) {
	em.OracleCalls.WithLabelValues(provider, status).Inc()
	if latencySec > 0 {
		em.OracleLatency.WithLabelValues(provider).Observe(latencySec)
	}
}

// RecordOracleError records an oracle failure.
func (em *EngineMetrics) RecordOracleError(provider, errorType string) {
	em.OracleErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordPrediction records a predicted win probability.
func (em *EngineMetrics) RecordPrediction(confidence string, probability float64) {
	em.WinProbability.WithLabelValues(confidence).Observe(probability)
}

// RecordValueBet records an identified value bet.
func (em *EngineMetrics) RecordValueBet(tier string, ev float64) {
	em.ValueBets.WithLabelValues(tier).Inc()
	em.BetEV.WithLabelValues(tier).Observe(ev)
}

// RecordSafeBet records an identified safe bet.
func (em *EngineMetrics) RecordSafeBet() {
	em.SafeBets.WithLabelValues().Inc()
}

// RecordSettlement records a settled bet.
func (em *EngineMetrics) RecordSettlement(result string, roi decimal.Decimal) {
	em.SettlementsTotal.WithLabelValues(result).Inc()
	em.SettlementROI.WithLabelValues().Add(DecimalToFloat64(roi))
}

// UpdatePending updates the pending bet count.
func (em *EngineMetrics) UpdatePending(count int) {
	em.PendingBets.WithLabelValues().Set(float64(count))
}

// UpdateClients updates the connected client count.
func (em *EngineMetrics) UpdateClients(count int) {
	em.ConnectedClients.WithLabelValues().Set(float64(count))
}

// RecordEvent records a broadcast event.
func (em *EngineMetrics) RecordEvent(eventType string) {
	em.EventsPublished.WithLabelValues(eventType).Inc()
}

// DecimalToFloat64 safely converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Global instance for convenience
var defaultMetrics *EngineMetrics
var once sync.Once

// Default returns the default global metrics instance.
func Default() *EngineMetrics {
	once.Do(func() {
		defaultMetrics = NewEngineMetrics()
	})
	return defaultMetrics
}
