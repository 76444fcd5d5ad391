package audit

import "errors"

var (
	// ErrStorageRequired indicates a nil storage backend was supplied.
	ErrStorageRequired = errors.New("audit: storage is required")

	// ErrStorageUnavailable indicates the storage backend rejected a write.
	ErrStorageUnavailable = errors.New("audit: storage backend is unavailable")

	// ErrInvalidEvent indicates the event is missing required fields.
	ErrInvalidEvent = errors.New("audit: invalid event")

	// ErrWriterClosed indicates a write was attempted after shutdown.
	ErrWriterClosed = errors.New("audit: writer is closed")
)
