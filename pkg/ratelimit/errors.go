package ratelimit

import "errors"

var (
	ErrInvalidLimit     = errors.New("ratelimit: invalid limit")
	ErrInvalidWindow    = errors.New("ratelimit: invalid window")
	ErrKeyRequired      = errors.New("ratelimit: key is required")
	ErrStoreRequired    = errors.New("ratelimit: store is required")
	ErrStoreUnavailable = errors.New("ratelimit: store unavailable")
)
