package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pool service.
type Metrics struct {
	// --- Engine ---
	MsgsApplied  *prometheus.CounterVec
	MsgsRejected *prometheus.CounterVec
	MsgDuration  *prometheus.HistogramVec

	// --- Pool activity ---
	SwapsExecuted       *prometheus.CounterVec
	LiquidityEvents     *prometheus.CounterVec
	InstructionsEmitted *prometheus.CounterVec

	// --- Pool state ---
	BaseReserve  prometheus.Gauge
	QuoteReserve prometheus.Gauge
	TotalShares  prometheus.Gauge

	// --- Idempotency ---
	IdempotencyDuplicates *prometheus.CounterVec
	DedupLRUSize          prometheus.Gauge

	// --- Transport ---
	PublishDrops    prometheus.Counter
	IngestQueueWait *prometheus.HistogramVec

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005,
		0.01, 0.025, 0.05, 0.1, 0.25,
	}

	pullBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Engine
		MsgsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_msgs_applied_total",
			Help: "Messages successfully applied by the engine",
		}, []string{"kind"}),

		MsgsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_msgs_rejected_total",
			Help: "Messages rejected (auth, validation, slippage, dedup)",
		}, []string{"kind", "reason"}),

		MsgDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aswap_msg_apply_duration_seconds",
			Help:    "Time to apply a single message, including the storage transaction",
			Buckets: latencyBuckets,
		}, []string{"kind"}),

		// Pool activity
		SwapsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_swaps_executed_total",
			Help: "Swaps executed, by input side and delivery",
		}, []string{"input", "delivery"}),

		LiquidityEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_liquidity_events_total",
			Help: "Liquidity adds and removals",
		}, []string{"direction"}),

		InstructionsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_instructions_emitted_total",
			Help: "Outbound token instructions emitted",
		}, []string{"kind"}),

		// Pool state
		BaseReserve: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aswap_base_reserve",
			Help: "Current base reserve (float approximation)",
		}),

		QuoteReserve: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aswap_quote_reserve",
			Help: "Current quote reserve (float approximation)",
		}),

		TotalShares: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aswap_total_shares",
			Help: "Liquidity shares outstanding (float approximation)",
		}),

		// Idempotency
		IdempotencyDuplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_idempotency_duplicates_total",
			Help: "Duplicates caught (lru/postgres)",
		}, []string{"kind", "tier"}),

		DedupLRUSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aswap_dedup_lru_size",
			Help: "Current LRU occupancy",
		}),

		// Transport
		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aswap_publish_drops_total",
			Help: "Instructions dropped due to full publish channel",
		}),

		IngestQueueWait: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aswap_ingest_queue_wait_seconds",
			Help:    "Delay between NATS delivery and engine pickup",
			Buckets: pullBuckets,
		}, []string{"kind"}),

		// Query API
		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_query_requests_total",
			Help: "Query requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aswap_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),

		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aswap_query_errors_total",
			Help: "Query errors",
		}, []string{"endpoint", "code"}),
	}
}

// SetReserves updates the pool-state gauges. Gauges are float64, so very
// large reserves lose precision here; the ledger itself is exact.
func (m *Metrics) SetReserves(base, quote, shares float64) {
	m.BaseReserve.Set(base)
	m.QuoteReserve.Set(quote)
	m.TotalShares.Set(shares)
}
