package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the journal engine.
type Metrics struct {
	// --- Ledger mutations ---
	EntriesRecorded *prometheus.CounterVec
	EntriesAmended  prometheus.Counter
	EntriesRemoved  prometheus.Counter

	// --- Balance accumulator ---
	BalanceAdjustments  *prometheus.CounterVec
	BalanceAdjustFailed *prometheus.CounterVec

	// --- Trades ---
	TradesOpened    prometheus.Counter
	TradesClosed    prometheus.Counter
	TradesCancelled prometheus.Counter

	// --- Snapshots ---
	SnapshotsBuilt     prometheus.Counter
	SnapshotDuplicates prometheus.Counter
	SnapshotBuildDur   prometheus.Histogram

	// --- Operations ---
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// --- Event feed ---
	FeedPublished prometheus.Counter
	FeedDropped   prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	opBuckets := []float64{
		0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005,
		0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
	}

	return &Metrics{
		EntriesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_entries_recorded_total",
			Help: "Ledger entries recorded, by type",
		}, []string{"type"}),

		EntriesAmended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_entries_amended_total",
			Help: "Ledger entries amended",
		}),

		EntriesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_entries_removed_total",
			Help: "Ledger entries removed",
		}),

		BalanceAdjustments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_balance_adjustments_total",
			Help: "Balance deltas applied, by source operation",
		}, []string{"source"}),

		BalanceAdjustFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_balance_adjust_failures_total",
			Help: "Balance adjustments that failed and triggered compensation",
		}, []string{"source"}),

		TradesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_trades_opened_total",
			Help: "Trades opened",
		}),

		TradesClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_trades_closed_total",
			Help: "Trades closed",
		}),

		TradesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_trades_cancelled_total",
			Help: "Trades cancelled",
		}),

		SnapshotsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_snapshots_built_total",
			Help: "Daily snapshots materialized",
		}),

		SnapshotDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_snapshot_duplicates_total",
			Help: "Snapshot builds rejected by the one-per-day constraint",
		}),

		SnapshotBuildDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "journal_snapshot_build_duration_seconds",
			Help:    "Time to build one daily snapshot",
			Buckets: opBuckets,
		}),

		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "journal_operation_duration_seconds",
			Help:    "End-to-end engine operation latency",
			Buckets: opBuckets,
		}, []string{"op"}),

		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_operation_errors_total",
			Help: "Engine operations that returned an error, by error kind",
		}, []string{"op", "kind"}),

		FeedPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_feed_published_total",
			Help: "Events published to the outbound feed",
		}),

		FeedDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "journal_feed_dropped_total",
			Help: "Outbound events dropped after publish failure",
		}),
	}
}
