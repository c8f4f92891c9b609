package availability

import (
	"context"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// BookingReader is the read side of the booking ledger the checker needs.
type BookingReader interface {
	ListByListing(ctx context.Context, listingID listings.ListingID, statuses ...booking.Status) ([]*booking.Booking, error)
}

// Checker answers conflict queries with a linear scan over the live bookings
// of a single listing. It never mutates state.
type Checker struct {
	Bookings BookingReader
}

func (c Checker) Calendar(ctx context.Context, listingID listings.ListingID) (*Calendar, error) {
	items, err := c.Bookings.ListByListing(ctx, listingID, booking.LiveStatuses...)
	if err != nil {
		return nil, err
	}
	return NewCalendar(listingID, items), nil
}

// HasConflict reports whether r overlaps a live booking other than exclude.
func (c Checker) HasConflict(ctx context.Context, listingID listings.ListingID, r daterange.DateRange, exclude booking.BookingID) (bool, error) {
	cal, err := c.Calendar(ctx, listingID)
	if err != nil {
		return false, err
	}
	return !cal.CanReserve(r, exclude), nil
}
