package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"praxis/internal/audit"
	"praxis/internal/profile/adapters"
	"praxis/internal/profile/metrics"
	"praxis/internal/profile/models"
	"praxis/internal/profile/ports"
)

// Config tunes the worker pool.
type Config struct {
	// MaxRetries bounds how many times a failed operation is re-attempted
	// after its first attempt.
	MaxRetries int

	// RetryBackoff is the delay before a failed operation becomes eligible
	// again.
	RetryBackoff time.Duration

	// AdapterTimeout bounds each individual downstream call.
	AdapterTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.AdapterTimeout <= 0 {
		c.AdapterTimeout = 5 * time.Second
	}
	return c
}

// Worker drains the queue with one goroutine per shard. Shards sleep until an
// enqueue wakes them; a timer covers retry deadlines, so there is no fixed
// polling interval anywhere.
//
// An attempt re-invokes every affected system, including ones that already
// succeeded earlier; adapters are idempotent by contract, and resetting the
// per-system statuses on retry keeps the bookkeeping honest about it.
type Worker struct {
	queue    *Queue
	registry ports.OperationRegistry
	adapters *adapters.Registry
	trail    audit.Store
	auditlog *audit.Publisher
	notifier ports.Notifier

	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config

	wg       sync.WaitGroup
	notifyWG sync.WaitGroup
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(
	queue *Queue,
	registry ports.OperationRegistry,
	adapterRegistry *adapters.Registry,
	trail audit.Store,
	auditlog *audit.Publisher,
	notifier ports.Notifier,
	cfg Config,
	opts ...WorkerOption,
) *Worker {
	w := &Worker{
		queue:    queue,
		registry: registry,
		adapters: adapterRegistry,
		trail:    trail,
		auditlog: auditlog,
		notifier: notifier,
		logger:   slog.Default(),
		cfg:      cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the shard goroutines. They run until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := range w.queue.shards {
		w.wg.Add(1)
		go w.runShard(ctx, i)
	}
}

// Drain blocks until every shard goroutine has stopped and all in-flight
// notification fanouts have finished. Call after cancelling the Start context.
func (w *Worker) Drain() {
	w.wg.Wait()
	w.notifyWG.Wait()
}

func (w *Worker) runShard(ctx context.Context, idx int) {
	defer w.wg.Done()
	s := w.queue.shards[idx]
	for {
		e, next, ok := s.pop(time.Now())
		if ok {
			w.process(ctx, e)
			w.metrics.SetQueueDepth(w.queue.Depth())
			if ctx.Err() != nil {
				return
			}
			continue
		}

		var timer *time.Timer
		var deadline <-chan time.Time
		if !next.IsZero() {
			timer = time.NewTimer(time.Until(next))
			deadline = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wakeC:
		case <-deadline:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (w *Worker) process(ctx context.Context, e entry) {
	op, err := w.registry.Get(ctx, e.operationID)
	if err != nil {
		// The entry outlived its operation (terminal eviction); nothing to do.
		w.logger.WarnContext(ctx, "queued operation no longer in registry",
			"operation_id", e.operationID,
			"error", err,
		)
		return
	}
	if op.Status.IsTerminal() {
		return
	}

	op.Status = models.SyncProcessing
	if err := w.registry.Update(ctx, op); err != nil {
		w.logger.ErrorContext(ctx, "failed to mark operation processing",
			"operation_id", op.OperationID,
			"error", err,
		)
	}
	if err := w.trail.UpdateSyncState(ctx, op.OperationID, audit.SyncUpdate{
		Status:     models.SyncProcessing,
		RetryCount: op.RetryCount,
		LastError:  op.LastError,
	}); err != nil {
		w.logger.WarnContext(ctx, "failed to update audit sync state",
			"operation_id", op.OperationID,
			"error", err,
		)
	}

	// Stakeholders hear about the change once, when its first attempt begins.
	// The authoritative value is already live at that point; propagation
	// outcomes do not gate the announcement.
	if w.notifier != nil && !op.Notified && op.Impact.AtLeast(models.ImpactHigh) {
		op.Notified = true
		if err := w.registry.Update(ctx, op); err != nil {
			w.logger.ErrorContext(ctx, "failed to record notification dispatch",
				"operation_id", op.OperationID,
				"error", err,
			)
		}
		w.dispatchNotifications(op.Clone())
	}

	change := op.Change()
	var failures []string
	for _, system := range op.Systems {
		if err := w.applySystem(ctx, system, change); err != nil {
			op.SystemStatus[system] = models.OutcomeFailed
			failures = append(failures, fmt.Sprintf("%s: %v", system, err))
			w.metrics.IncrementSyncAttempt(system.String(), string(models.OutcomeFailed))
			continue
		}
		op.SystemStatus[system] = models.OutcomeUpdated
		w.metrics.IncrementSyncAttempt(system.String(), string(models.OutcomeUpdated))
	}

	now := time.Now()
	if op.AllUpdated() {
		w.finishCompleted(ctx, op, now)
		return
	}
	w.handleFailure(ctx, op, failures, now)
}

// applySystem resolves and invokes one adapter under the per-call timeout. A
// missing adapter counts as a failed system, so the operation keeps retrying
// until configuration catches up or the budget runs out.
func (w *Worker) applySystem(ctx context.Context, system models.System, change models.SectionChange) error {
	adapter, err := w.adapters.Lookup(system)
	if err != nil {
		return err
	}
	applyCtx, cancel := context.WithTimeout(ctx, w.cfg.AdapterTimeout)
	defer cancel()
	return adapter.Apply(applyCtx, change)
}

func (w *Worker) finishCompleted(ctx context.Context, op *models.SyncOperation, now time.Time) {
	op.Status = models.SyncCompleted
	op.FinishedAt = now
	op.LastError = ""
	if err := w.registry.Update(ctx, op); err != nil {
		w.logger.ErrorContext(ctx, "failed to mark operation completed",
			"operation_id", op.OperationID,
			"error", err,
		)
	}
	if err := w.trail.UpdateSyncState(ctx, op.OperationID, audit.SyncUpdate{
		Status:     models.SyncCompleted,
		RetryCount: op.RetryCount,
	}); err != nil {
		w.logger.WarnContext(ctx, "failed to update audit sync state",
			"operation_id", op.OperationID,
			"error", err,
		)
	}
	w.metrics.IncrementOperationFinished(models.SyncCompleted.String())
	w.logger.InfoContext(ctx, "sync operation completed",
		"operation_id", op.OperationID,
		"subject_id", op.SubjectID,
		"section", op.Section,
		"systems", len(op.Systems),
		"retries", op.RetryCount,
	)
}

func (w *Worker) handleFailure(ctx context.Context, op *models.SyncOperation, failures []string, now time.Time) {
	errMsg := strings.Join(failures, "; ")
	attempt := &audit.AttemptRecord{
		Attempt:       op.RetryCount + 1,
		FailedSystems: op.FailedSystems(),
		Error:         errMsg,
		At:            now,
	}

	if op.RetryCount >= w.cfg.MaxRetries {
		op.Status = models.SyncFailed
		op.FinishedAt = now
		op.LastError = errMsg
		if err := w.registry.Update(ctx, op); err != nil {
			w.logger.ErrorContext(ctx, "failed to mark operation failed",
				"operation_id", op.OperationID,
				"error", err,
			)
		}
		if err := w.trail.UpdateSyncState(ctx, op.OperationID, audit.SyncUpdate{
			Status:     models.SyncFailed,
			RetryCount: op.RetryCount,
			LastError:  errMsg,
			Attempt:    attempt,
		}); err != nil {
			w.logger.WarnContext(ctx, "failed to update audit sync state",
				"operation_id", op.OperationID,
				"error", err,
			)
		}
		w.emitSyncFailure(ctx, op, now)
		w.metrics.IncrementOperationFinished(models.SyncFailed.String())
		w.logger.ErrorContext(ctx, "sync operation exhausted retry budget",
			"operation_id", op.OperationID,
			"subject_id", op.SubjectID,
			"section", op.Section,
			"failed_systems", attempt.FailedSystems,
			"retries", op.RetryCount,
			"error", errMsg,
		)
		return
	}

	op.RetryCount++
	op.LastError = errMsg
	notBefore := now.Add(w.cfg.RetryBackoff)
	op.ResetForRetry(notBefore)
	if err := w.registry.Update(ctx, op); err != nil {
		w.logger.ErrorContext(ctx, "failed to record retry",
			"operation_id", op.OperationID,
			"error", err,
		)
	}
	if err := w.trail.UpdateSyncState(ctx, op.OperationID, audit.SyncUpdate{
		Status:     models.SyncQueued,
		RetryCount: op.RetryCount,
		LastError:  errMsg,
		Attempt:    attempt,
	}); err != nil {
		w.logger.WarnContext(ctx, "failed to update audit sync state",
			"operation_id", op.OperationID,
			"error", err,
		)
	}
	w.metrics.IncrementRetry()
	w.queue.Enqueue(op)
	w.logger.WarnContext(ctx, "sync attempt failed, retry scheduled",
		"operation_id", op.OperationID,
		"subject_id", op.SubjectID,
		"attempt", attempt.Attempt,
		"not_before", notBefore,
		"error", errMsg,
	)
}

// emitSyncFailure appends the terminal failure as its own trail entry. The
// update entry flips to failed at the same moment; this row preserves when
// and why as part of the subject's forensic sequence.
func (w *Worker) emitSyncFailure(ctx context.Context, op *models.SyncOperation, now time.Time) {
	err := w.auditlog.Emit(ctx, audit.Entry{
		OperationID: op.OperationID,
		SubjectID:   op.SubjectID,
		Section:     op.Section,
		Kind:        audit.KindSyncFailure,
		NewValue:    op.NewValue,
		Impact:      op.Impact,
		SyncStatus:  models.SyncFailed,
		RetryCount:  op.RetryCount,
		LastError:   op.LastError,
		CreatedAt:   now,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to append sync failure audit entry",
			"operation_id", op.OperationID,
			"error", err,
		)
	}
}

// dispatchNotifications runs fanout detached from the attempt so slow
// deliveries never hold up propagation. Drain waits for these goroutines.
func (w *Worker) dispatchNotifications(op *models.SyncOperation) {
	w.notifyWG.Add(1)
	go func() {
		defer w.notifyWG.Done()
		// Detached context: the attempt's deadline must not cut deliveries
		// short.
		ctx := context.Background()
		records := w.notifier.NotifyProfileChanged(ctx, op)
		for _, record := range records {
			w.metrics.IncrementNotification(string(record.Channel), string(record.Status))
		}
		if len(records) == 0 {
			return
		}
		if err := w.trail.AttachNotifications(ctx, op.OperationID, records); err != nil {
			w.logger.Warn("failed to attach notification records",
				"operation_id", op.OperationID,
				"error", err,
			)
		}
	}()
}
