package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"praxis/internal/audit"
	auditmem "praxis/internal/audit/store/memory"
	"praxis/internal/profile/adapters"
	"praxis/internal/profile/classify"
	"praxis/internal/profile/models"
	"praxis/internal/profile/ports"
	"praxis/internal/profile/store/operation"
	id "praxis/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alwaysFail makes a scripted adapter reject every call.
const alwaysFail = 1 << 30

// scriptedAdapter records every Apply call and fails the first failFor of
// them.
type scriptedAdapter struct {
	system  models.System
	failFor int
	err     error

	mu    sync.Mutex
	calls []models.SectionChange
}

func newScriptedAdapter(system models.System) *scriptedAdapter {
	return &scriptedAdapter{system: system}
}

func (a *scriptedAdapter) System() models.System {
	return a.system
}

func (a *scriptedAdapter) Apply(_ context.Context, change models.SectionChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, change)
	if len(a.calls) <= a.failFor {
		if a.err != nil {
			return a.err
		}
		return errors.New("downstream rejected change")
	}
	return nil
}

func (a *scriptedAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *scriptedAdapter) call(idx int) models.SectionChange {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[idx]
}

type capturingNotifier struct {
	mu  sync.Mutex
	ops []*models.SyncOperation
}

func (n *capturingNotifier) NotifyProfileChanged(_ context.Context, op *models.SyncOperation) []models.NotificationRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ops = append(n.ops, op)
	return []models.NotificationRecord{{
		RecipientID: id.RecipientID(uuid.New()),
		Channel:     models.ChannelInApp,
		Status:      models.NotificationSent,
		SentAt:      time.Now(),
	}}
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ops)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type workerHarness struct {
	queue    *Queue
	registry *operation.MemoryRegistry
	trail    *auditmem.InMemoryStore
	notifier *capturingNotifier
	worker   *Worker
}

func newWorkerHarness(t *testing.T, cfg Config, adapterList ...ports.Synchronizer) *workerHarness {
	t.Helper()

	h := &workerHarness{
		queue:    NewQueue(2),
		registry: operation.NewMemoryRegistry(),
		trail:    auditmem.NewInMemoryStore(),
		notifier: &capturingNotifier{},
	}
	adapterRegistry, err := adapters.NewRegistry(adapterList...)
	require.NoError(t, err)

	auditlog := audit.NewPublisher(h.trail, audit.WithLogger(discardLogger()))
	h.worker = NewWorker(h.queue, h.registry, adapterRegistry, h.trail, auditlog, h.notifier, cfg,
		WithWorkerLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	h.worker.Start(ctx)
	t.Cleanup(func() {
		cancel()
		h.worker.Drain()
		auditlog.Close()
	})
	return h
}

// accept mimics the update path: a registered operation, its audit update
// entry, and a queue entry.
func (h *workerHarness) accept(t *testing.T, subjectID id.SubjectID, section models.Section, value json.RawMessage) *models.SyncOperation {
	t.Helper()
	c, err := classify.Classify(section)
	require.NoError(t, err)

	now := time.Now()
	op := models.NewSyncOperation(id.NewOperationID(), subjectID, section, value, c, now)
	require.NoError(t, h.registry.Save(context.Background(), op))
	require.NoError(t, h.trail.Append(context.Background(), audit.Entry{
		ID:          uuid.NewString(),
		OperationID: op.OperationID,
		SubjectID:   subjectID,
		Section:     section,
		Kind:        audit.KindUpdate,
		NewValue:    value,
		Impact:      c.Impact,
		SyncStatus:  models.SyncQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
	h.queue.Enqueue(op)
	return op
}

func (h *workerHarness) waitForStatus(t *testing.T, operationID id.OperationID, status models.SyncStatus) *models.SyncOperation {
	t.Helper()
	var got *models.SyncOperation
	require.Eventually(t, func() bool {
		op, err := h.registry.Get(context.Background(), operationID)
		if err != nil {
			return false
		}
		got = op
		return op.Status == status
	}, 3*time.Second, 10*time.Millisecond)
	return got
}

func TestWorker_CompletesWhenEverySystemAcknowledges(t *testing.T) {
	booking := newScriptedAdapter(models.SystemBooking)
	cache := newScriptedAdapter(models.SystemCache)
	h := newWorkerHarness(t, Config{}, booking, cache)

	subjectID := id.SubjectID(uuid.New())
	value := json.RawMessage(`{"hours":"09:00-17:00"}`)
	op := h.accept(t, subjectID, models.SectionAvailability, value)

	done := h.waitForStatus(t, op.OperationID, models.SyncCompleted)

	assert.Zero(t, done.RetryCount)
	assert.Empty(t, done.LastError)
	assert.False(t, done.FinishedAt.IsZero())
	for _, system := range done.Systems {
		assert.Equal(t, models.OutcomeUpdated, done.SystemStatus[system])
	}

	require.Equal(t, 1, booking.callCount())
	require.Equal(t, 1, cache.callCount())
	change := booking.call(0)
	assert.Equal(t, op.OperationID, change.OperationID)
	assert.Equal(t, subjectID, change.SubjectID)
	assert.JSONEq(t, string(value), string(change.Value))

	entry, err := h.trail.Get(context.Background(), op.OperationID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncCompleted, entry.SyncStatus)
	assert.Empty(t, entry.Attempts)

	stats, err := h.registry.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Completed)
}

func TestWorker_RetryReinvokesEverySystem(t *testing.T) {
	booking := newScriptedAdapter(models.SystemBooking)
	booking.failFor = 1
	cache := newScriptedAdapter(models.SystemCache)
	h := newWorkerHarness(t, Config{RetryBackoff: 10 * time.Millisecond}, booking, cache)

	op := h.accept(t, id.SubjectID(uuid.New()), models.SectionAvailability, json.RawMessage(`{"hours":"by appointment"}`))

	done := h.waitForStatus(t, op.OperationID, models.SyncCompleted)

	assert.Equal(t, 1, done.RetryCount)
	// The retry re-invoked the system that had already succeeded; downstream
	// writes are idempotent so the second apply converges.
	assert.Equal(t, 2, booking.callCount())
	assert.Equal(t, 2, cache.callCount())

	entry, err := h.trail.Get(context.Background(), op.OperationID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncCompleted, entry.SyncStatus)
	require.Len(t, entry.Attempts, 1)
	assert.Equal(t, 1, entry.Attempts[0].Attempt)
	assert.Equal(t, []models.System{models.SystemBooking}, entry.Attempts[0].FailedSystems)

	stats, err := h.registry.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Retries)
}

func TestWorker_ExhaustedRetryBudgetMarksOperationFailed(t *testing.T) {
	search := newScriptedAdapter(models.SystemSearch)
	search.failFor = alwaysFail
	search.err = errors.New("search index down")
	h := newWorkerHarness(t, Config{MaxRetries: 2, RetryBackoff: 5 * time.Millisecond}, search)

	subjectID := id.SubjectID(uuid.New())
	op := h.accept(t, subjectID, models.SectionEducation, json.RawMessage(`{"degrees":["MSc"]}`))

	done := h.waitForStatus(t, op.OperationID, models.SyncFailed)

	assert.Equal(t, 2, done.RetryCount)
	assert.False(t, done.FinishedAt.IsZero())
	assert.Contains(t, done.LastError, "search index down")
	// Initial attempt plus two retries.
	assert.Equal(t, 3, search.callCount())

	entry, err := h.trail.Get(context.Background(), op.OperationID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncFailed, entry.SyncStatus)
	require.Len(t, entry.Attempts, 3)
	assert.Equal(t, 3, entry.Attempts[2].Attempt)

	// The terminal failure leaves its own trail entry beside the update.
	entries, err := h.trail.ListBySubject(context.Background(), subjectID, 0)
	require.NoError(t, err)
	kinds := make([]audit.Kind, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, audit.KindSyncFailure)

	// Medium impact: no stakeholder fanout, and no automatic rollback either;
	// the authoritative value stays what the caller wrote.
	assert.Zero(t, h.notifier.count())

	stats, err := h.registry.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(2), stats.Retries)
}

func TestWorker_SameSubjectRunsInAcceptanceOrder(t *testing.T) {
	search := newScriptedAdapter(models.SystemSearch)
	h := newWorkerHarness(t, Config{}, search)

	subjectID := id.SubjectID(uuid.New())
	first := h.accept(t, subjectID, models.SectionBio, json.RawMessage(`{"text":"v1"}`))
	second := h.accept(t, subjectID, models.SectionBio, json.RawMessage(`{"text":"v2"}`))

	h.waitForStatus(t, first.OperationID, models.SyncCompleted)
	h.waitForStatus(t, second.OperationID, models.SyncCompleted)

	require.Equal(t, 2, search.callCount())
	assert.Equal(t, first.OperationID, search.call(0).OperationID)
	assert.Equal(t, second.OperationID, search.call(1).OperationID)
}

func TestWorker_NotifiesOnceOnFirstAttempt(t *testing.T) {
	search := newScriptedAdapter(models.SystemSearch)
	search.failFor = 1
	integrations := newScriptedAdapter(models.SystemIntegrations)
	h := newWorkerHarness(t, Config{RetryBackoff: 10 * time.Millisecond}, search, integrations)

	op := h.accept(t, id.SubjectID(uuid.New()), models.SectionSpecialties, json.RawMessage(`["anxiety","sleep"]`))

	done := h.waitForStatus(t, op.OperationID, models.SyncCompleted)

	assert.Equal(t, 1, done.RetryCount)
	assert.True(t, done.Notified)

	// Exactly one fanout despite two attempts.
	require.Eventually(t, func() bool {
		return h.notifier.count() == 1
	}, 3*time.Second, 10*time.Millisecond)

	// The fanout's records land on the audit entry once delivery finishes.
	require.Eventually(t, func() bool {
		entry, err := h.trail.Get(context.Background(), op.OperationID)
		return err == nil && len(entry.Notifications) == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWorker_LowImpactNeverNotifies(t *testing.T) {
	search := newScriptedAdapter(models.SystemSearch)
	h := newWorkerHarness(t, Config{}, search)

	op := h.accept(t, id.SubjectID(uuid.New()), models.SectionBio, json.RawMessage(`{"text":"hello"}`))

	h.waitForStatus(t, op.OperationID, models.SyncCompleted)

	assert.Zero(t, h.notifier.count())
	entry, err := h.trail.Get(context.Background(), op.OperationID)
	require.NoError(t, err)
	assert.Empty(t, entry.Notifications)
}

func TestWorker_MissingAdapterCountsAsFailedSystem(t *testing.T) {
	cache := newScriptedAdapter(models.SystemCache)
	h := newWorkerHarness(t, Config{MaxRetries: 1, RetryBackoff: 5 * time.Millisecond}, cache)

	op := h.accept(t, id.SubjectID(uuid.New()), models.SectionAvailability, json.RawMessage(`{"hours":"weekends"}`))

	done := h.waitForStatus(t, op.OperationID, models.SyncFailed)

	assert.Contains(t, done.LastError, "no adapter for system booking")
	assert.Equal(t, models.OutcomeFailed, done.SystemStatus[models.SystemBooking])
	// The configured system was still applied on every attempt.
	assert.Equal(t, 2, cache.callCount())
}

func TestWorker_DropsEntriesWithoutRegistryRecord(t *testing.T) {
	search := newScriptedAdapter(models.SystemSearch)
	h := newWorkerHarness(t, Config{}, search)

	// Enqueue without registering: mirrors an entry whose terminal operation
	// was evicted before the queue drained.
	h.queue.Enqueue(queuedOp(id.SubjectID(uuid.New()), time.Time{}))

	require.Eventually(t, func() bool {
		return h.queue.Depth() == 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.Zero(t, search.callCount())
}
