package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// contextExtractor pulls a string value out of a request context.
type contextExtractor func(context.Context) (string, bool)

// Recorder stamps and persists decision records. It fills in the fields
// the caller should not have to carry (ID, timestamp, request ID, client
// IP) and validates before handing the event to storage.
type Recorder struct {
	storage            Storage
	requestIDExtractor contextExtractor
	ipExtractor        contextExtractor
	now                func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithRequestIDExtractor supplies the request ID for events that do not
// carry one already.
func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(r *Recorder) {
		r.requestIDExtractor = fn
	}
}

// WithIPExtractor supplies the client IP for events that do not carry
// one already.
func WithIPExtractor(fn func(context.Context) (string, bool)) Option {
	return func(r *Recorder) {
		r.ipExtractor = fn
	}
}

// NewRecorder creates a Recorder over the given storage.
func NewRecorder(storage Storage, opts ...Option) (*Recorder, error) {
	if storage == nil {
		return nil, ErrStorageRequired
	}

	r := &Recorder{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record stamps the event and writes it to storage. Callers treat the
// returned error as diagnostic only; a failed audit write never changes
// the decision the event describes.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if event.RequestID == "" && r.requestIDExtractor != nil {
		if id, ok := r.requestIDExtractor(ctx); ok {
			event.RequestID = id
		}
	}
	if event.IP == "" && r.ipExtractor != nil {
		if ip, ok := r.ipExtractor(ctx); ok {
			event.IP = ip
		}
	}

	if err := event.Validate(); err != nil {
		return err
	}

	return r.storage.Store(ctx, event)
}
