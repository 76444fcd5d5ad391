package audit

import (
	"context"
	"log/slog"
)

// SlogStorage emits decision records as structured log lines. It is the
// zero-infrastructure backend: useful for development and as a secondary
// sink beside a durable store.
type SlogStorage struct {
	logger *slog.Logger
}

// NewSlogStorage creates a storage backed by the given logger. A nil
// logger falls back to slog.Default.
func NewSlogStorage(logger *slog.Logger) *SlogStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogStorage{logger: logger}
}

func (s *SlogStorage) Store(ctx context.Context, event Event) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "gateway decision", eventAttrs(event)...)
	return nil
}

func (s *SlogStorage) StoreBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := s.Store(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func eventAttrs(event Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("audit_id", event.ID),
		slog.Time("timestamp", event.Timestamp),
		slog.String("principal_id", event.PrincipalID),
		slog.String("resource", event.Resource),
		slog.String("action", event.Action),
		slog.String("outcome", string(event.Outcome)),
	}
	if event.AgentID != "" {
		attrs = append(attrs, slog.String("agent_id", event.AgentID))
	}
	if event.Tier != "" {
		attrs = append(attrs, slog.String("tier", event.Tier))
	}
	if event.Rule != "" {
		attrs = append(attrs, slog.String("rule", event.Rule))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if event.Region != "" {
		attrs = append(attrs, slog.String("region", event.Region))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.IP != "" {
		attrs = append(attrs, slog.String("ip", event.IP))
	}
	return attrs
}
