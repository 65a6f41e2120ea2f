package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_OPENED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete carrier all domain events are built on.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes emitted on the audit stream.
const (
	TypeSessionOpened      = "SESSION_OPENED"
	TypeSessionClosed      = "SESSION_CLOSED"
	TypeImageAttached      = "IMAGE_ATTACHED"
	TypeAnnotationRecorded = "ANNOTATION_RECORDED"
	TypeAnnotationEdited   = "ANNOTATION_EDITED"
	TypeCanvasFlushed      = "CANVAS_FLUSHED"
	TypeIndexBuilt         = "INDEX_BUILT"
)
