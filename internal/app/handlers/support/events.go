package support

import (
	"context"

	"staybook/internal/app/outbox"
	"staybook/internal/domain/shared/events"
)

// Drainer is implemented by aggregates embedding events.EventRecorder.
type Drainer interface {
	DrainEvents() []events.DomainEvent
}

// PublishEvents moves the aggregates' pending events into the outbox of the
// current unit of work.
func PublishEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, aggregates ...Drainer) error {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		if err := outbox.RecordDomainEvents(ctx, box, encoder, agg.DrainEvents()); err != nil {
			return err
		}
	}
	return nil
}
