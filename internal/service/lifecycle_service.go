package service

import (
	"context"
	"time"

	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/events"
	"ai-act-intake-be/pkg/intake"
)

const publishTimeout = 2 * time.Second

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// LifecycleEventSink forwards intake lifecycle events to the bus. Without a
// publisher it only logs.
type LifecycleEventSink struct {
	publisher EventPublisher
	logger    logger.ILogger
}

var _ intake.EventSink = (*LifecycleEventSink)(nil)

func NewLifecycleEventSink(publisher EventPublisher, log logger.ILogger) *LifecycleEventSink {
	return &LifecycleEventSink{publisher: publisher, logger: log}
}

// Emit never blocks the session for longer than publishTimeout and never fails it.
func (s *LifecycleEventSink) Emit(ctx context.Context, e intake.Event) {
	s.logger.Info("LIFECYCLE", string(e.Type), map[string]interface{}{
		"session_id": e.SessionID,
		"stage":      e.Stage,
		"revisions":  e.Revisions,
	})
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.FromIntake(e)); err != nil {
		s.logger.Warn("LIFECYCLE", "Failed to publish event", map[string]interface{}{
			"type":  e.Type,
			"error": err.Error(),
		})
	}
}
