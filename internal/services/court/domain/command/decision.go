package command

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// NewEvent builds an event by copying the envelope fields shared with cmd.
func NewEvent(cmd Command, eventType event.Type, entityType, entityID string, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		CourtID:      cmd.CourtID,
		Type:         eventType,
		Timestamp:    now,
		ActorType:    event.ActorType(cmd.ActorType),
		ActorID:      cmd.ActorID,
		RequestID:    cmd.RequestID,
		InvocationID: cmd.InvocationID,
		EntityType:   entityType,
		EntityID:     entityID,
		PayloadJSON:  payloadJSON,
	}
}
