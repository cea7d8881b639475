// Package audit maintains the append-only verification log. Every
// verification attempt produces exactly one entry, persisted before the
// response is returned and mirrored best-effort to a Kafka topic for
// downstream consumers.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"certverify/internal/audit/models"
	"certverify/pkg/requestcontext"
)

// Store is the durable log port.
type Store interface {
	Append(ctx context.Context, e *models.Entry) error
	ListByCertificate(ctx context.Context, certificateID uuid.UUID) ([]*models.Entry, error)
}

// Sink receives a copy of each entry after it is persisted. Sink failures
// never fail the recording.
type Sink interface {
	Publish(ctx context.Context, e *models.Entry) error
}

type Recorder struct {
	store  Store
	logger *slog.Logger

	queue  chan *models.Entry
	done   chan struct{}
	cancel context.CancelFunc
}

type Option func(*Recorder)

// WithSink attaches an asynchronous sink. Entries are queued after the
// store append succeeds; a full queue drops the mirror copy, never the
// durable record.
func WithSink(sink Sink) Option {
	return func(r *Recorder) {
		r.queue = make(chan *models.Entry, 256)
		r.done = make(chan struct{})

		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel
		go r.pump(ctx, sink)
	}
}

func NewRecorder(store Store, logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{store: store, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists a verification log entry, assigning its ID and timestamp
// when unset.
func (r *Recorder) Record(ctx context.Context, e *models.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.VerifiedAt.IsZero() {
		e.VerifiedAt = requestcontext.Now(ctx)
	}
	if e.VerifierIP == "" {
		e.VerifierIP = requestcontext.ClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = requestcontext.UserAgent(ctx)
	}

	if err := r.store.Append(ctx, e); err != nil {
		return err
	}

	if r.queue != nil {
		cp := *e
		select {
		case r.queue <- &cp:
		default:
			r.logger.WarnContext(ctx, "audit sink queue full, dropping mirror copy",
				"log_id", e.ID,
			)
		}
	}
	return nil
}

// History returns the log entries for one certificate, oldest first.
func (r *Recorder) History(ctx context.Context, certificateID uuid.UUID) ([]*models.Entry, error) {
	return r.store.ListByCertificate(ctx, certificateID)
}

func (r *Recorder) pump(ctx context.Context, sink Sink) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			// Drain whatever is already queued before shutting down.
			for {
				select {
				case e := <-r.queue:
					r.publish(e, sink)
				default:
					return
				}
			}
		case e := <-r.queue:
			r.publish(e, sink)
		}
	}
}

func (r *Recorder) publish(e *models.Entry, sink Sink) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sink.Publish(ctx, e); err != nil {
		r.logger.Warn("audit sink publish failed",
			"log_id", e.ID,
			"error", err,
		)
	}
}

// Close stops the sink pump after draining the queue. Safe to call when no
// sink was configured.
func (r *Recorder) Close() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}
