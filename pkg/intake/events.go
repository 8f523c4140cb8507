package intake

import (
	"context"
	"time"
)

type EventType string

const (
	EventStarted          EventType = "INTAKE_STARTED"
	EventSummaryFinalized EventType = "INTAKE_SUMMARY_FINALIZED"
	EventEvaluated        EventType = "INTAKE_EVALUATED"
	EventEnded            EventType = "INTAKE_ENDED"
)

// Event describes a lifecycle step. It never carries answers or summaries.
type Event struct {
	Type             EventType `json:"type"`
	SessionID        string    `json:"session_id"`
	Stage            Stage     `json:"stage"`
	Revisions        int       `json:"revisions"`
	UsedBrainstormer bool      `json:"used_brainstormer"`
	OccurredAt       time.Time `json:"occurred_at"`
}

type EventSink interface {
	Emit(ctx context.Context, event Event)
}

func newEvent(t EventType, s *Session) Event {
	snap := s.Snapshot()
	return Event{
		Type:             t,
		SessionID:        snap.ID,
		Stage:            snap.Stage,
		Revisions:        snap.Revisions,
		UsedBrainstormer: snap.UsedBrainstormer,
		OccurredAt:       time.Now().UTC(),
	}
}
