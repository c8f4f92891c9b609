package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"staybook/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// PendingRecord is a record claimed for delivery by a relay worker.
type PendingRecord struct {
	EventRecord
	Attempts int
}

// Outbox buffers records inside the caller's unit of work. Flush is called
// before commit by backends that batch writes.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Source is the relay side of an outbox store.
type Source interface {
	Claim(ctx context.Context, workerID string) (*PendingRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{"event-name": ev.EventName()},
	}, nil
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
