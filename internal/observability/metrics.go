package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for EscrowDesk.
type Metrics struct {
	// --- Order lifecycle ---
	OrdersCreated  prometheus.Counter
	OrdersFilled   prometheus.Counter
	OrdersCanceled prometheus.Counter
	OrdersSwept    *prometheus.CounterVec
	OpsRejected    *prometheus.CounterVec
	OpDuration     *prometheus.HistogramVec

	// --- Queue ---
	NextSequence prometheus.Gauge
	SweepCursor  prometheus.Gauge
	LiveOrders   prometheus.Gauge

	// --- Ledger ---
	LedgerCredits    *prometheus.CounterVec
	LedgerWithdrawn  prometheus.Counter
	FeeLiability     *prometheus.GaugeVec
	ClaimableEntries prometheus.Gauge

	// --- Notifications ---
	EventsEmitted *prometheus.CounterVec
	EventsDropped prometheus.Counter

	// --- Persistence ---
	PersistEventsWritten prometheus.Counter
	PersistBatchDur      prometheus.Histogram
	PersistBatchSize     prometheus.Histogram
	PersistErrors        *prometheus.CounterVec
	PersistLastSequence  prometheus.Gauge

	// --- Read surface ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	opBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_orders_created_total",
			Help: "Orders accepted into the Active state",
		}),

		OrdersFilled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_orders_filled_total",
			Help: "Orders filled",
		}),

		OrdersCanceled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_orders_canceled_total",
			Help: "Orders canceled by their maker",
		}),

		OrdersSwept: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_orders_swept_total",
			Help: "Orders tombstoned by cleanup",
		}, []string{"prior_status"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_ops_rejected_total",
			Help: "Mutating operations rejected",
		}, []string{"op", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escrow_op_duration_seconds",
			Help:    "Time to execute a mutating engine operation",
			Buckets: opBuckets,
		}, []string{"op"}),

		NextSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "escrow_next_sequence",
			Help: "Next order sequence number to assign",
		}),

		SweepCursor: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "escrow_sweep_cursor",
			Help: "First live sequence number (cleanup cursor)",
		}),

		LiveOrders: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "escrow_live_orders",
			Help: "Orders not yet tombstoned",
		}),

		LedgerCredits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_ledger_credits_total",
			Help: "Claimable ledger credits",
		}, []string{"reason"}),

		LedgerWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_ledger_withdrawn_total",
			Help: "Successful external payouts",
		}),

		FeeLiability: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "escrow_fee_liability",
			Help: "Accumulated fee liability per asset",
		}, []string{"asset"}),

		ClaimableEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "escrow_claimable_entries",
			Help: "Nonzero (principal, asset) claimable entries",
		}),

		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_events_emitted_total",
			Help: "Notifications emitted by the engine",
		}, []string{"event_type"}),

		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_events_dropped_total",
			Help: "Notifications dropped due to full publish channel",
		}),

		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_persist_events_written_total",
			Help: "Notifications written to Postgres",
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrow_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrow_persist_batch_size",
			Help:    "Notifications per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "escrow_persist_last_sequence",
			Help: "Last persisted emission sequence",
		}),

		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_query_requests_total",
			Help: "Read-surface requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escrow_query_duration_seconds",
			Help:    "Read-surface latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),
	}
}
