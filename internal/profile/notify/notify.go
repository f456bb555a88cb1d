// Package notify fans applied high-impact profile changes out to the
// stakeholders they affect. Delivery is best-effort by contract: every
// attempt produces a record, failed deliveries are logged and absorbed,
// and nothing here ever feeds back into sync outcomes.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout        = 5 * time.Second
	defaultMaxConcurrency = 8
)

// StakeholderResolver answers who cares about changes to a subject's profile.
type StakeholderResolver interface {
	AffectedStakeholders(ctx context.Context, subjectID id.SubjectID) ([]id.RecipientID, error)
}

// Sender delivers one notification to one recipient over one channel.
type Sender interface {
	Send(ctx context.Context, recipientID id.RecipientID, payload Payload, channel models.Channel) error
}

// Fanout resolves stakeholders for a changed profile and dispatches to each
// of them over every channel the change's impact warrants.
type Fanout struct {
	resolver StakeholderResolver
	sender   Sender

	logger         *slog.Logger
	timeout        time.Duration
	maxConcurrency int
}

type Option func(*Fanout)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fanout) {
		f.logger = logger
	}
}

// WithTimeout bounds each individual delivery attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fanout) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxConcurrency caps in-flight deliveries across recipients and channels.
func WithMaxConcurrency(n int) Option {
	return func(f *Fanout) {
		if n > 0 {
			f.maxConcurrency = n
		}
	}
}

func NewFanout(resolver StakeholderResolver, sender Sender, opts ...Option) *Fanout {
	f := &Fanout{
		resolver:       resolver,
		sender:         sender,
		logger:         slog.Default(),
		timeout:        defaultTimeout,
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NotifyProfileChanged dispatches one notification per affected stakeholder
// per channel and returns a record for every attempt. A resolution failure
// means nobody can be told; it is logged and yields no records.
func (f *Fanout) NotifyProfileChanged(ctx context.Context, op *models.SyncOperation) []models.NotificationRecord {
	channels := models.ChannelsForImpact(op.Impact)
	if len(channels) == 0 {
		return nil
	}

	recipients, err := f.resolver.AffectedStakeholders(ctx, op.SubjectID)
	if err != nil {
		f.logger.WarnContext(ctx, "stakeholder resolution failed, skipping notification fanout",
			"subject_id", op.SubjectID,
			"operation_id", op.OperationID,
			"error", err,
		)
		return nil
	}
	if len(recipients) == 0 {
		return nil
	}

	payload := BuildPayload(op)

	var (
		mu      sync.Mutex
		records []models.NotificationRecord
	)
	g := new(errgroup.Group)
	g.SetLimit(f.maxConcurrency)

	for _, recipientID := range recipients {
		for _, channel := range channels {
			g.Go(func() error {
				record := f.deliver(ctx, recipientID, payload, channel)
				mu.Lock()
				records = append(records, record)
				mu.Unlock()
				return nil
			})
		}
	}
	// Goroutines never return errors; failures live in the records.
	_ = g.Wait()

	f.logger.InfoContext(ctx, "notification fanout finished",
		"operation_id", op.OperationID,
		"subject_id", op.SubjectID,
		"impact", op.Impact,
		"recipients", len(recipients),
		"deliveries", len(records),
	)
	return records
}

func (f *Fanout) deliver(ctx context.Context, recipientID id.RecipientID, payload Payload, channel models.Channel) models.NotificationRecord {
	sendCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	record := models.NotificationRecord{
		RecipientID: recipientID,
		Channel:     channel,
		Status:      models.NotificationSent,
		SentAt:      time.Now(),
	}
	if err := f.sender.Send(sendCtx, recipientID, payload, channel); err != nil {
		record.Status = models.NotificationFailed
		record.Error = err.Error()
		f.logger.WarnContext(ctx, "notification delivery failed",
			"recipient_id", recipientID,
			"channel", channel,
			"operation_id", payload.OperationID,
			"error", err,
		)
	}
	return record
}
