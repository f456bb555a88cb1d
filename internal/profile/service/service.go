// Package service is the profile engine's front door. PerformUpdate applies a
// section change to the authoritative store and answers immediately; the
// queued operation carries propagation, retries and notifications from there.
// Rollback restores a captured pre-update value synchronously.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"praxis/internal/audit"
	"praxis/internal/profile/classify"
	"praxis/internal/profile/metrics"
	"praxis/internal/profile/models"
	"praxis/internal/profile/ports"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
	"praxis/pkg/platform/sentinel"
	"praxis/pkg/requestcontext"
)

const (
	defaultSnapshotTTL = time.Hour

	defaultChangeLimit = 20
	maxChangeLimit     = 200
)

// Queue hands accepted operations to the propagation workers.
type Queue interface {
	Enqueue(op *models.SyncOperation)
	Depth() int
}

// AuditPublisher emits change-trail entries.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Service coordinates one update cycle: classify, snapshot, write, record,
// enqueue. Everything after the authoritative write is bookkeeping and must
// not retract the caller's success.
type Service struct {
	profiles  ports.ProfileStore
	snapshots ports.SnapshotStore
	registry  ports.OperationRegistry
	queue     Queue
	trail     audit.Store
	publisher AuditPublisher

	snapshotTTL time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSnapshotTTL sets how long rollback snapshots stay available.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// New constructs a Service.
func New(profiles ports.ProfileStore, snapshots ports.SnapshotStore, registry ports.OperationRegistry, queue Queue, trail audit.Store, publisher AuditPublisher, opts ...Option) *Service {
	s := &Service{
		profiles:    profiles,
		snapshots:   snapshots,
		registry:    registry,
		queue:       queue,
		trail:       trail,
		publisher:   publisher,
		snapshotTTL: defaultSnapshotTTL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PerformUpdate applies a section change optimistically. The new value is
// live in the authoritative store when this returns; downstream systems catch
// up through the queued operation. RollbackAvailable is false when the
// pre-update snapshot could not be captured.
func (s *Service) PerformUpdate(ctx context.Context, subjectID id.SubjectID, section models.Section, newValue json.RawMessage, actorID id.ActorID) (*models.UpdateResult, error) {
	ctx, span := otel.Tracer("profile").Start(ctx, "service.PerformUpdate",
		trace.WithAttributes(
			attribute.String("subject_id", subjectID.String()),
			attribute.String("section", section.String()),
		),
	)
	defer span.End()
	start := time.Now()

	if subjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "subject id is required")
	}
	if len(newValue) == 0 || !json.Valid(newValue) {
		return nil, dErrors.New(dErrors.CodeValidation, "section value must be valid JSON")
	}

	// Classification gates the pipeline: an unknown section is rejected
	// before any store is touched.
	c, err := classify.Classify(section)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unclassifiable section")
		return nil, err
	}

	previous, err := s.profiles.ReadSection(ctx, subjectID, section)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read current section value")
	}

	operationID := id.NewOperationID()
	now := requestcontext.Now(ctx)

	// Snapshot before the write. Losing the snapshot costs the undo button,
	// not the update; the caller learns via RollbackAvailable.
	rollbackAvailable := true
	snap := &models.RollbackSnapshot{
		OperationID:   operationID,
		SubjectID:     subjectID,
		Section:       section,
		PreviousValue: previous,
		CapturedAt:    now,
	}
	if err := s.snapshots.Capture(ctx, snap, s.snapshotTTL); err != nil {
		rollbackAvailable = false
		s.logger.WarnContext(ctx, "snapshot capture failed, update proceeds without rollback",
			"operation_id", operationID,
			"subject_id", subjectID,
			"section", section,
			"error", err,
		)
	}

	if err := s.profiles.WriteSection(ctx, subjectID, section, newValue, now); err != nil {
		if rollbackAvailable {
			// Nothing changed, so there is nothing to roll back to.
			if delErr := s.snapshots.Delete(ctx, operationID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to discard snapshot after rejected write",
					"operation_id", operationID,
					"error", delErr,
				)
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "authoritative write failed")
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeApplyFailed, "failed to apply section update")
	}

	op := models.NewSyncOperation(operationID, subjectID, section, newValue, c, now)
	s.recordAccepted(ctx, op, previous, actorID)

	s.metrics.IncrementUpdate(c.Impact.String())
	s.metrics.ObserveApply(start)
	s.refreshGauges(ctx)

	return &models.UpdateResult{
		OperationID:       operationID,
		UpdatedValue:      newValue,
		Impact:            c.Impact,
		RollbackAvailable: rollbackAvailable,
	}, nil
}

// recordAccepted writes the trail entry, registers the operation and hands it
// to the queue. The section value is already live, so failures here are
// logged, never returned.
func (s *Service) recordAccepted(ctx context.Context, op *models.SyncOperation, previous json.RawMessage, actorID id.ActorID) {
	entry := audit.Entry{
		OperationID: op.OperationID,
		SubjectID:   op.SubjectID,
		Section:     op.Section,
		Kind:        audit.KindUpdate,
		ActorID:     actorID,
		OldValue:    previous,
		NewValue:    op.NewValue,
		Impact:      op.Impact,
		SyncStatus:  models.SyncQueued,
		Client: audit.ClientInfo{
			IP:        requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
		},
		CreatedAt: op.QueuedAt,
	}
	if err := s.publisher.Emit(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to record update in change trail",
			"operation_id", op.OperationID,
			"subject_id", op.SubjectID,
			"error", err,
		)
	}

	if err := s.registry.Save(ctx, op); err != nil {
		// The worker drops queue entries it cannot resolve, so enqueueing an
		// unregistered operation would be a no-op anyway.
		s.logger.ErrorContext(ctx, "failed to register sync operation, propagation skipped",
			"operation_id", op.OperationID,
			"subject_id", op.SubjectID,
			"error", err,
		)
		return
	}
	s.queue.Enqueue(op)
}

// Rollback restores the pre-update value captured for an operation. It
// returns false with a nil error when no snapshot exists: expiry and
// already-consumed are outcomes, not faults. The restore is a plain
// authoritative write and does not re-propagate downstream.
func (s *Service) Rollback(ctx context.Context, operationID id.OperationID) (bool, error) {
	ctx, span := otel.Tracer("profile").Start(ctx, "service.Rollback",
		trace.WithAttributes(attribute.String("operation_id", operationID.String())),
	)
	defer span.End()

	if operationID.IsNil() {
		return false, dErrors.New(dErrors.CodeValidation, "operation id is required")
	}

	snap, err := s.snapshots.Get(ctx, operationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementRollback("expired")
			return false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot lookup failed")
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rollback snapshot")
	}

	restored := normalizeValue(snap.PreviousValue)
	now := requestcontext.Now(ctx)
	if err := s.profiles.WriteSection(ctx, snap.SubjectID, snap.Section, restored, now); err != nil {
		s.metrics.IncrementRollback("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "restore write failed")
		s.logger.ErrorContext(ctx, "rollback write failed, authoritative value unchanged",
			"operation_id", operationID,
			"subject_id", snap.SubjectID,
			"section", snap.Section,
			"error", err,
		)
		return false, dErrors.Wrap(err, dErrors.CodeRollbackFailed, "failed to restore previous value")
	}

	s.recordRollback(ctx, snap, restored, now)

	if err := s.snapshots.Delete(ctx, operationID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete consumed snapshot",
			"operation_id", operationID,
			"error", err,
		)
	}

	s.metrics.IncrementRollback("restored")
	s.refreshGauges(ctx)
	s.logger.InfoContext(ctx, "section value restored",
		"operation_id", operationID,
		"subject_id", snap.SubjectID,
		"section", snap.Section,
	)
	return true, nil
}

// recordRollback appends the compensating trail entry. A rollback is itself a
// change whose old and new values are both the restored one.
func (s *Service) recordRollback(ctx context.Context, snap *models.RollbackSnapshot, restored json.RawMessage, now time.Time) {
	impact := models.Impact("")
	if c, err := classify.Classify(snap.Section); err == nil {
		impact = c.Impact
	}
	entry := audit.Entry{
		OperationID: snap.OperationID,
		SubjectID:   snap.SubjectID,
		Section:     snap.Section,
		Kind:        audit.KindRollback,
		ActorID:     requestcontext.ActorID(ctx),
		OldValue:    restored,
		NewValue:    restored,
		Impact:      impact,
		SyncStatus:  models.SyncCompleted,
		Client: audit.ClientInfo{
			IP:        requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
		},
		CreatedAt: now,
	}
	if err := s.publisher.Emit(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to record rollback in change trail",
			"operation_id", snap.OperationID,
			"subject_id", snap.SubjectID,
			"error", err,
		)
	}
}

// SyncStats reports the live engine state: registry counts, queue depth and
// retained snapshots.
func (s *Service) SyncStats(ctx context.Context) (models.SyncStats, error) {
	stats, err := s.registry.Stats(ctx)
	if err != nil {
		return models.SyncStats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operation stats")
	}
	stats.QueueDepth = s.queue.Depth()
	size, err := s.snapshots.Size(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to count retained snapshots", "error", err)
	} else {
		stats.Snapshots = size
	}
	return stats, nil
}

// RecentChanges lists a subject's change trail, newest first.
func (s *Service) RecentChanges(ctx context.Context, subjectID id.SubjectID, limit int) ([]audit.Entry, error) {
	if subjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "subject id is required")
	}
	entries, err := s.trail.ListBySubject(ctx, subjectID, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list changes")
	}
	return entries, nil
}

// ChangesBySection narrows the change trail to one section, newest first.
func (s *Service) ChangesBySection(ctx context.Context, subjectID id.SubjectID, section models.Section, limit int) ([]audit.Entry, error) {
	if subjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "subject id is required")
	}
	if _, err := classify.Classify(section); err != nil {
		return nil, err
	}
	entries, err := s.trail.ListBySubjectSection(ctx, subjectID, section, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list changes")
	}
	return entries, nil
}

// PendingSyncOperations lists queued and processing operations, oldest first.
func (s *Service) PendingSyncOperations(ctx context.Context) ([]*models.SyncOperation, error) {
	ops, err := s.registry.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active operations")
	}
	return ops, nil
}

func (s *Service) refreshGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetQueueDepth(s.queue.Depth())
	if size, err := s.snapshots.Size(ctx); err == nil {
		s.metrics.SetSnapshotEntries(size)
	}
}

// normalizeValue turns a missing pre-image into an explicit JSON null. The
// first write to a section has no previous value; rolling that update back
// records the section as cleared rather than deleting it.
func normalizeValue(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage("null")
	}
	return v
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultChangeLimit
	case limit > maxChangeLimit:
		return maxChangeLimit
	default:
		return limit
	}
}
