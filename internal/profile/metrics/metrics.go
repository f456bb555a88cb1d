package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the profile sync engine.
type Metrics struct {
	// Accepted updates by impact, and how long the optimistic apply takes
	UpdatesTotal  *prometheus.CounterVec
	ApplyDuration prometheus.Histogram

	// Propagation outcomes per downstream system and per operation
	SyncAttempts    *prometheus.CounterVec
	SyncRetries     prometheus.Counter
	OperationsTotal *prometheus.CounterVec

	// Live engine state
	QueueDepth      prometheus.Gauge
	SnapshotEntries prometheus.Gauge

	RollbacksTotal     *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all profile engine metrics registered.
func New() *Metrics {
	return &Metrics{
		UpdatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_profile_updates_total",
			Help: "Total accepted profile section updates by impact",
		}, []string{"impact"}),

		ApplyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "praxis_profile_update_apply_seconds",
			Help:    "Duration of the optimistic apply path (snapshot + authoritative write)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		SyncAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_sync_attempts_total",
			Help: "Total per-system propagation attempts by outcome",
		}, []string{"system", "outcome"}), // outcome: "updated", "failed"

		SyncRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praxis_sync_retries_total",
			Help: "Total sync operation retries scheduled",
		}),

		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_operations_total",
			Help: "Total sync operations reaching a terminal state",
		}, []string{"status"}), // status: "completed", "failed"

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "praxis_sync_queue_depth",
			Help: "Current number of queued sync operations across all shards",
		}),

		SnapshotEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "praxis_snapshot_cache_entries",
			Help: "Current number of live rollback snapshots",
		}),

		RollbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_rollbacks_total",
			Help: "Total rollback requests by outcome",
		}, []string{"outcome"}), // outcome: "restored", "expired", "failed"

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praxis_notifications_total",
			Help: "Total stakeholder notification deliveries by channel and status",
		}, []string{"channel", "status"}),
	}
}

// IncrementUpdate records an accepted profile update.
func (m *Metrics) IncrementUpdate(impact string) {
	if m != nil {
		m.UpdatesTotal.WithLabelValues(impact).Inc()
	}
}

// ObserveApply records the duration of the optimistic apply path.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApply(start time.Time) {
	if m != nil {
		m.ApplyDuration.Observe(time.Since(start).Seconds())
	}
}

// IncrementSyncAttempt records one per-system propagation attempt.
func (m *Metrics) IncrementSyncAttempt(system, outcome string) {
	if m != nil {
		m.SyncAttempts.WithLabelValues(system, outcome).Inc()
	}
}

// IncrementRetry records a scheduled retry.
func (m *Metrics) IncrementRetry() {
	if m != nil {
		m.SyncRetries.Inc()
	}
}

// IncrementOperationFinished records an operation reaching a terminal state.
func (m *Metrics) IncrementOperationFinished(status string) {
	if m != nil {
		m.OperationsTotal.WithLabelValues(status).Inc()
	}
}

// SetQueueDepth reports the current queue depth.
func (m *Metrics) SetQueueDepth(depth int) {
	if m != nil {
		m.QueueDepth.Set(float64(depth))
	}
}

// SetSnapshotEntries reports the current number of live snapshots.
func (m *Metrics) SetSnapshotEntries(count int) {
	if m != nil {
		m.SnapshotEntries.Set(float64(count))
	}
}

// IncrementRollback records a rollback request outcome.
func (m *Metrics) IncrementRollback(outcome string) {
	if m != nil {
		m.RollbacksTotal.WithLabelValues(outcome).Inc()
	}
}

// IncrementNotification records one notification delivery attempt.
func (m *Metrics) IncrementNotification(channel, status string) {
	if m != nil {
		m.NotificationsTotal.WithLabelValues(channel, status).Inc()
	}
}
