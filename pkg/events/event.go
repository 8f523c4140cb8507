package events

import (
	"time"

	"ai-act-intake-be/pkg/intake"
)

// Event defines the contract for everything published on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INTAKE_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	Timestamp() time.Time
}

// BaseEvent is an event received from the bus, or one built by hand.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// IntakeEvent puts a session lifecycle step on the bus. Its payload holds
// ids, stage names and counters only.
type IntakeEvent struct {
	intake.Event
}

func FromIntake(e intake.Event) IntakeEvent {
	return IntakeEvent{Event: e}
}

func (e IntakeEvent) EventType() string { return string(e.Type) }

func (e IntakeEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"type":              string(e.Type),
		"session_id":        e.SessionID,
		"stage":             string(e.Stage),
		"revisions":         e.Revisions,
		"used_brainstormer": e.UsedBrainstormer,
		"occurred_at":       e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e IntakeEvent) Timestamp() time.Time { return e.OccurredAt }
