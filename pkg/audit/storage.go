package audit

import "context"

// Storage persists decision records one at a time.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchStorage persists decision records in bulk. Implementations must be
// atomic per batch: either every event in the slice is stored or none is.
type BatchStorage interface {
	Storage
	StoreBatch(ctx context.Context, events []Event) error
}
