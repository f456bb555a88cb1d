package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher appends entries to the store, optionally through a buffered
// background writer so the update hot path never waits on trail persistence.
// Sync-state mutations bypass the publisher: the worker needs them durable
// before it moves on, so it talks to the Store directly.
type Publisher struct {
	store  Store
	logger *slog.Logger

	async  bool
	inbox  chan Entry
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// buffer size. When the buffer is full, entries are dropped and logged rather
// than blocking the caller.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.async = true
		p.inbox = make(chan Entry, size)
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher. Synchronous unless WithAsyncBuffer is
// given.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		go p.run()
	}
	return p
}

// Emit records an entry, stamping ID and timestamps when unset. In async mode
// a full buffer drops the entry; the change trail is best effort there, and
// the caller has already committed the state the entry describes.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	if !p.async {
		return p.store.Append(ctx, entry)
	}

	select {
	case p.inbox <- entry:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping entry",
			"operation_id", entry.OperationID,
			"kind", entry.Kind,
		)
		return nil
	}
}

// Close drains the async buffer and stops the background writer. Safe to call
// multiple times and on synchronous publishers.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.async {
			close(p.inbox)
			<-p.done
		}
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for entry := range p.inbox {
		// Detached context: the originating request may be long gone.
		if err := p.store.Append(context.Background(), entry); err != nil {
			p.logger.Error("failed to append audit entry",
				"operation_id", entry.OperationID,
				"kind", entry.Kind,
				"error", err,
			)
		}
	}
}
