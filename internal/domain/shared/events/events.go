package events

import "time"

// DomainEvent is the data the core hands to the notification collaborator.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects events raised by an aggregate until the application
// layer drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// DrainEvents returns the pending events and clears the recorder.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.PendingEvents()
	r.ClearEvents()
	return out
}
