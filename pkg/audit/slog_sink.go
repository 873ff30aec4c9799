package audit

import (
	"context"
	"log/slog"
)

// SlogSink writes audit events to the structured log
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates an audit sink backed by the given logger.
// A nil logger uses slog's default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Append logs one event
func (s *SlogSink) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"outcome", event.Outcome,
		"userID", event.UserID,
		"deviceID", event.DeviceID,
		"message", event.Message,
	)
	return nil
}

// NoOpSink discards every event
type NoOpSink struct{}

// NewNoOpSink creates a sink that discards events
func NewNoOpSink() Sink {
	return &NoOpSink{}
}

func (s *NoOpSink) Append(ctx context.Context, event Event) error {
	return nil
}
