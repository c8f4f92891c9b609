package availability

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	ListingID string    `json:"listing_id" validate:"required"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	// ExcludeBookingID ignores one booking, e.g. when moving its own dates.
	ExcludeBookingID string `json:"exclude_booking_id,omitempty"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle answers whether the range is free. It does not consider the
// listing's status; CreateBooking rejects inactive listings separately.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (*dto.Availability, error) {
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		return nil, err
	}
	conflict, err := domainavailability.Checker{Bookings: unit.Bookings()}.
		HasConflict(execCtx, listingID, dr, domainbooking.BookingID(q.ExcludeBookingID))
	if err != nil {
		return nil, err
	}
	return &dto.Availability{
		ListingID: q.ListingID,
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Available: !conflict,
	}, nil
}

// Register attaches the availability queries to bus.
func Register(bus *queries.InMemoryBus, check *CheckAvailabilityHandler, blocked *BlockedDatesHandler) {
	queries.RegisterHandler[CheckAvailabilityQuery, *dto.Availability](bus, checkAvailabilityKey, check)
	queries.RegisterHandler[BlockedDatesQuery, *dto.BlockedDates](bus, blockedDatesKey, blocked)
}
