package events

import (
	"context"
	"time"
)

// Event types published after staged imports are applied.
const (
	QuestionsImported = "QUESTIONS_IMPORTED"
	AnswersImported   = "ANSWERS_IMPORTED"
	FileArchived      = "FILE_ARCHIVED"
)

type Event interface {
	// EventType returns the unique code for this event (e.g., "QUESTIONS_IMPORTED").
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Publisher sends events to the bus. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

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
