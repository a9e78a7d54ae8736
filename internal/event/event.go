package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is one occurrence of a host event.
type Event[T any] struct {
	Topic    Topic
	Payload  T
	Metadata Metadata
}

// Metadata is attached to every event.
type Metadata struct {
	// ID is unique per event.
	ID string

	Timestamp time.Time

	// Source names the component that published the event.
	Source string

	// CorrelationID links an event to the one that caused it, such as a
	// replayed click to the remote message carrying it.
	CorrelationID string
}

// Envelope is an event with its payload type erased, as delivered by the Bus.
type Envelope = Event[any]

// New creates an event stamped with a fresh id and the current time.
func New[T any](topic Topic, payload T, source string) Event[T] {
	return Event[T]{
		Topic:   topic,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Envelope erases the payload type.
func (e Event[T]) Envelope() Envelope {
	return Envelope{Topic: e.Topic, Payload: e.Payload, Metadata: e.Metadata}
}

// WithCorrelation returns a copy of e correlated to id.
func (e Event[T]) WithCorrelation(id string) Event[T] {
	e.Metadata.CorrelationID = id
	return e
}

// Payload extracts a typed payload from env.
func Payload[T any](env Envelope) (T, bool) {
	p, ok := env.Payload.(T)
	return p, ok
}
