package booking

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const transitionBookingKey = "booking.transition"

type TransitionBookingCommand struct {
	ActorID   string `json:"actor_id" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
	To        string `json:"to" validate:"required"`
	Reason    string `json:"reason,omitempty"`
}

func (c TransitionBookingCommand) Key() string        { return transitionBookingKey }
func (c TransitionBookingCommand) ActingUser() string { return c.ActorID }

func ConfirmBooking(actorID, bookingID string) TransitionBookingCommand {
	return TransitionBookingCommand{ActorID: actorID, BookingID: bookingID, To: string(domainbooking.StatusConfirmed)}
}

func CancelBooking(actorID, bookingID, reason string) TransitionBookingCommand {
	return TransitionBookingCommand{ActorID: actorID, BookingID: bookingID, To: string(domainbooking.StatusCancelled), Reason: reason}
}

func CompleteBooking(actorID, bookingID string) TransitionBookingCommand {
	return TransitionBookingCommand{ActorID: actorID, BookingID: bookingID, To: string(domainbooking.StatusCompleted)}
}

type TransitionBookingHandler struct {
	UoWFactory   uow.UoWFactory
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Cancellation policies.CancellationPolicy
	Logger       *slog.Logger
	Now          func() time.Time
}

// Handle applies a host or guest requested status change. Users unrelated to
// the booking see NotFound.
func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*dto.Booking, error) {
	to, err := domainbooking.ParseStatus(cmd.To)
	if err != nil {
		return nil, err
	}
	unit, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	booking, err := unit.Bookings().ByID(unit.Ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	actor, err := booking.ActorFor(cmd.ActorID)
	if err != nil {
		return nil, err
	}
	now := support.Clock(h.Now)
	if to == domainbooking.StatusCancelled && booking.Status != to && domainbooking.CanTransition(booking.Status, to) && h.Cancellation != nil {
		if err := h.Cancellation.AllowCancel(unit.Ctx, booking, actor, now); err != nil {
			return nil, err
		}
	}
	from := booking.Status
	changed, err := booking.Transition(to, actor, cmd.Reason, now)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := unit.Bookings().Save(unit.Ctx, booking); err != nil {
			return nil, err
		}
		if err := support.PublishEvents(unit.Ctx, h.Outbox, h.Encoder, booking); err != nil {
			return nil, err
		}
		if err := unit.Commit(); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("booking transitioned",
				"booking_id", booking.ID,
				"from", from,
				"to", booking.Status,
				"actor_id", actor.ID,
				"role", actor.Role,
			)
		}
	}
	result := dto.MapBooking(booking)
	return &result, nil
}

var _ commands.Handler[TransitionBookingCommand, *dto.Booking] = (*TransitionBookingHandler)(nil)
