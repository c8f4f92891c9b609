package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	GuestID         string    `json:"guest_id" validate:"required"`
	ListingID       string    `json:"listing_id" validate:"required"`
	GuestName       string    `json:"guest_name" validate:"required"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	IdempotencyKeyV string    `json:"-"`
}

func (c CreateBookingCommand) Key() string            { return createBookingKey }
func (c CreateBookingCommand) ActingUser() string     { return c.GuestID }
func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CreateBookingCommand) ResultPrototype() any   { return &dto.Booking{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Handle checks availability and inserts the booking while holding the
// listing lock, so two overlapping requests cannot both succeed.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	unit, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	listingID := domainlistings.ListingID(cmd.ListingID)
	if err := unit.LockListing(unit.Ctx, listingID); err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(unit.Ctx, listingID)
	if err != nil {
		return nil, err
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(h.newID()),
		Listing:   listing,
		GuestID:   cmd.GuestID,
		GuestName: cmd.GuestName,
		CheckIn:   cmd.CheckIn,
		CheckOut:  cmd.CheckOut,
		Now:       support.Clock(h.Now),
	})
	if err != nil {
		return nil, err
	}

	checker := domainavailability.Checker{Bookings: unit.Bookings()}
	conflict, err := checker.HasConflict(unit.Ctx, listingID, booking.Range, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domainbooking.ErrOverlap
	}

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
		h.Logger.Info("booking created",
			"booking_id", booking.ID,
			"listing_id", booking.ListingID,
			"guest_id", booking.GuestID,
			"nights", booking.Nights(),
			"total", booking.TotalPrice.Amount,
		)
	}
	result := dto.MapBooking(booking)
	return &result, nil
}

func (h *CreateBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
