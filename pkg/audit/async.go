package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AsyncOptions tunes the batching writer. Zero values get defaults sized
// for a gateway that audits every request.
type AsyncOptions struct {
	// BufferSize is the number of events that may queue in memory before
	// writes fall back to synchronous batch inserts.
	BufferSize int
	// BatchSize is the target number of events per storage write.
	BatchSize int
	// FlushInterval bounds how long a partial batch may wait in memory.
	FlushInterval time.Duration
	// StorageTimeout bounds each storage round-trip.
	StorageTimeout time.Duration
}

func (o *AsyncOptions) applyDefaults() {
	if o.BufferSize <= 0 {
		o.BufferSize = 1000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 100 * time.Millisecond
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = 5 * time.Second
	}
}

// AsyncWriter batches decision records in a background goroutine so the
// request path never waits on the durable store. Store returns as soon
// as the event is queued; flush failures are logged, not propagated,
// because an audit write must never change the decision it describes.
type AsyncWriter struct {
	storage BatchStorage
	logger  *slog.Logger
	options AsyncOptions

	events chan Event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewAsyncWriter starts the background flusher over the given storage.
// A nil logger falls back to slog.Default.
func NewAsyncWriter(storage BatchStorage, logger *slog.Logger, opts AsyncOptions) (*AsyncWriter, error) {
	if storage == nil {
		return nil, ErrStorageRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.applyDefaults()

	w := &AsyncWriter{
		storage: storage,
		logger:  logger,
		options: opts,
		events:  make(chan Event, opts.BufferSize),
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.worker()

	return w, nil
}

// Store queues the event for the next batch. When the buffer is full the
// write degrades to a synchronous batch insert rather than dropping the
// record.
func (w *AsyncWriter) Store(ctx context.Context, event Event) error {
	select {
	case <-w.done:
		return ErrWriterClosed
	default:
	}

	select {
	case w.events <- event:
		return nil
	default:
		return w.flush(ctx, []Event{event})
	}
}

func (w *AsyncWriter) worker() {
	defer w.wg.Done()

	batch := make([]Event, 0, w.options.BatchSize)
	ticker := time.NewTicker(w.options.FlushInterval)
	defer ticker.Stop()

	flushPending := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.flush(context.Background(), batch); err != nil {
			w.logger.Error("audit batch write failed",
				slog.Int("events", len(batch)),
				slog.Any("error", err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event := <-w.events:
			batch = append(batch, event)
			if len(batch) >= w.options.BatchSize {
				flushPending()
			}

		case <-ticker.C:
			flushPending()

		case <-w.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case event := <-w.events:
					batch = append(batch, event)
				default:
					flushPending()
					return
				}
			}
		}
	}
}

func (w *AsyncWriter) flush(ctx context.Context, events []Event) error {
	// Detached from request contexts so a cancelled caller cannot abort
	// a batch that carries other requests' records.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.options.StorageTimeout)
	defer cancel()
	return w.storage.StoreBatch(ctx, events)
}

// Close stops the flusher and drains queued events. The context bounds
// how long the drain may take.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.once.Do(func() { close(w.done) })

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
