// Package events publishes domain events after the owning transaction
// commits. Publishing is fire-and-forget: failures are logged, never
// surfaced to the caller.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stantonsupply/backoffice/pkg/enums"
)

// Event is the envelope every domain event ships in.
type Event struct {
	Type       enums.EventType `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       any             `json:"data"`
}

// Publisher emits domain events. Implementations must not block the
// request path on broker round-trips.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// NewEvent stamps an event envelope with the current time.
func NewEvent(eventType enums.EventType, data any) Event {
	return Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func (e Event) marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Noop discards every event. Used in tests and when no broker is
// configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) {}

// Close implements Publisher.
func (Noop) Close() error { return nil }
