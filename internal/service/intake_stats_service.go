package service

import (
	"context"
	"sync"

	"ai-act-intake-be/internal/dto"
	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/events"
	"ai-act-intake-be/pkg/intake"
	pktNats "ai-act-intake-be/pkg/nats"
)

// IntakeStatsService counts lifecycle events seen on the bus, across all
// instances publishing to it.
type IntakeStatsService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger

	mu    sync.RWMutex
	stats dto.IntakeStatsResponse
}

func NewIntakeStatsService(sub *pktNats.Subscriber, log logger.ILogger) *IntakeStatsService {
	return &IntakeStatsService{subscriber: sub, logger: log}
}

// Start begins listening to the event bus.
func (s *IntakeStatsService) Start(ctx context.Context) {
	if s.subscriber == nil {
		return
	}
	if err := s.subscriber.Subscribe(ctx, pktNats.Subject(">"), "intake-stats-worker", s.handleEvent); err != nil {
		s.logger.Error("IntakeStatsService", "Failed to start stats subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("IntakeStatsService", "Stats service started", nil)
}

func (s *IntakeStatsService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch intake.EventType(event.EventType()) {
	case intake.EventStarted:
		s.stats.Started++
	case intake.EventSummaryFinalized:
		s.stats.SummaryFinalized++
		if used, _ := payload["used_brainstormer"].(bool); used {
			s.stats.Brainstormed++
		}
		// JSON numbers decode as float64.
		if n, ok := payload["revisions"].(float64); ok {
			s.stats.Revisions += int64(n)
		}
	case intake.EventEvaluated:
		s.stats.Evaluated++
	case intake.EventEnded:
		s.stats.Ended++
	}
	return nil
}

func (s *IntakeStatsService) Stats() dto.IntakeStatsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
