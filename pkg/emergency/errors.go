package emergency

import "errors"

var (
	ErrStoreRequired    = errors.New("emergency: store is required")
	ErrStoreUnavailable = errors.New("emergency: store unavailable")
	ErrMalformedState   = errors.New("emergency: malformed state payload")
)
