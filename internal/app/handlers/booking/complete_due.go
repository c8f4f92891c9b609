package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const completeDueKey = "booking.complete_due"

// CompleteDueBookingsCommand completes, as the system actor, every confirmed
// booking whose check-out is on or before AsOf.
type CompleteDueBookingsCommand struct {
	AsOf time.Time `json:"as_of"`
}

func (c CompleteDueBookingsCommand) Key() string { return completeDueKey }

type CompleteDueResult struct {
	Completed []string `json:"completed"`
	// Skipped lists bookings that changed concurrently and were left alone.
	Skipped []string `json:"skipped,omitempty"`
}

type CompleteDueHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CompleteDueHandler) Handle(ctx context.Context, cmd CompleteDueBookingsCommand) (*CompleteDueResult, error) {
	asOf := cmd.AsOf.UTC()
	if cmd.AsOf.IsZero() {
		asOf = support.Clock(h.Now)
	}
	unit, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	due, err := unit.Bookings().ListDue(unit.Ctx, asOf)
	if err != nil {
		return nil, err
	}
	result := &CompleteDueResult{Completed: make([]string, 0, len(due))}
	for _, b := range due {
		changed, err := b.Complete(domainbooking.SystemActor, asOf)
		if errors.Is(err, domainbooking.ErrNotDue) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}
		if err := unit.Bookings().Save(unit.Ctx, b); err != nil {
			if errors.Is(err, domainbooking.ErrConcurrentUpdate) {
				// Changed since it was listed; the next sweep sees the fresh state.
				result.Skipped = append(result.Skipped, string(b.ID))
				if h.Logger != nil {
					h.Logger.Warn("auto-complete skipped stale booking", "booking_id", b.ID)
				}
				continue
			}
			return nil, err
		}
		if err := support.PublishEvents(unit.Ctx, h.Outbox, h.Encoder, b); err != nil {
			return nil, err
		}
		result.Completed = append(result.Completed, string(b.ID))
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil && len(result.Completed) > 0 {
		h.Logger.Info("bookings auto-completed", "count", len(result.Completed), "as_of", asOf)
	}
	return result, nil
}

var _ commands.Handler[CompleteDueBookingsCommand, *CompleteDueResult] = (*CompleteDueHandler)(nil)
