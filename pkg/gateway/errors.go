package gateway

import "errors"

var (
	ErrDecoderRequired  = errors.New("gateway: claims decoder is required")
	ErrMapperRequired   = errors.New("gateway: principal mapper is required")
	ErrResolverRequired = errors.New("gateway: region resolver is required")
	ErrGateRequired     = errors.New("gateway: compliance gate is required")
	ErrLatchRequired    = errors.New("gateway: emergency latch is required")
	ErrLimiterRequired  = errors.New("gateway: rate limiter is required")
	ErrEngineRequired   = errors.New("gateway: policy engine is required")
	ErrRecorderRequired = errors.New("gateway: audit recorder is required")
)
