package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

// ErrReadOnly is returned by Save on a read-only unit.
var ErrReadOnly = errors.New("memory: unit of work is read-only")

// listingRepo is the unit-scoped view of the listing table: staged rows shadow
// committed ones.
type listingRepo struct {
	unit *Unit
}

func (r listingRepo) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil, ErrUnitFinished
	}
	if l, ok := u.listings[id]; ok {
		return cloneListing(l), nil
	}
	if l, ok := u.store.listing(id); ok {
		return l, nil
	}
	return nil, domainlistings.ErrListingNotFound
}

func (r listingRepo) Save(_ context.Context, listing *domainlistings.Listing) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return ErrUnitFinished
	}
	if u.readOnly {
		return ErrReadOnly
	}
	var current int64
	if staged, ok := u.listings[listing.ID]; ok {
		current = staged.Version
	} else if stored, ok := u.store.listing(listing.ID); ok {
		current = stored.Version
	}
	if listing.Version != current {
		return domainlistings.ErrConcurrentUpdate
	}
	if _, tracked := u.listingBase[listing.ID]; !tracked {
		u.listingBase[listing.ID] = current
	}
	listing.Version++
	u.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r listingRepo) ListByOwner(_ context.Context, owner domainlistings.HostID) ([]*domainlistings.Listing, error) {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil, ErrUnitFinished
	}
	match := func(l *domainlistings.Listing) bool { return l.Owner == owner }
	out := make([]*domainlistings.Listing, 0)
	for _, l := range u.store.listingsWhere(match) {
		if _, shadowed := u.listings[l.ID]; !shadowed {
			out = append(out, l)
		}
	}
	for _, l := range u.listings {
		if match(l) {
			out = append(out, cloneListing(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type bookingRepo struct {
	unit *Unit
}

func (r bookingRepo) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil, ErrUnitFinished
	}
	if b, ok := u.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	if b, ok := u.store.booking(id); ok {
		return b, nil
	}
	return nil, domainbooking.ErrBookingNotFound
}

func (r bookingRepo) Save(_ context.Context, booking *domainbooking.Booking) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return ErrUnitFinished
	}
	if u.readOnly {
		return ErrReadOnly
	}
	var current int64
	if staged, ok := u.bookings[booking.ID]; ok {
		current = staged.Version
	} else if stored, ok := u.store.booking(booking.ID); ok {
		current = stored.Version
	}
	if booking.Version != current {
		return domainbooking.ErrConcurrentUpdate
	}
	if _, tracked := u.bookingBase[booking.ID]; !tracked {
		u.bookingBase[booking.ID] = current
	}
	booking.Version++
	u.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r bookingRepo) ListByGuest(_ context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.where(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
}

func (r bookingRepo) ListByHost(_ context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.where(func(b *domainbooking.Booking) bool { return b.HostID == hostID })
}

func (r bookingRepo) ListByListing(_ context.Context, listingID domainlistings.ListingID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.where(func(b *domainbooking.Booking) bool {
		return b.ListingID == listingID && statusIn(b.Status, statuses)
	})
}

func (r bookingRepo) ListDue(_ context.Context, asOf time.Time) ([]*domainbooking.Booking, error) {
	asOf = asOf.UTC()
	return r.where(func(b *domainbooking.Booking) bool {
		return b.Status == domainbooking.StatusConfirmed && !b.Range.CheckOut.After(asOf)
	})
}

func (r bookingRepo) where(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil, ErrUnitFinished
	}
	out := make([]*domainbooking.Booking, 0)
	for _, b := range u.store.bookingsWhere(match) {
		if _, shadowed := u.bookings[b.ID]; !shadowed {
			out = append(out, b)
		}
	}
	for _, b := range u.bookings {
		if match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.CheckIn.Equal(out[j].Range.CheckIn) {
			return out[i].ID < out[j].ID
		}
		return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
	})
	return out, nil
}

func statusIn(s domainbooking.Status, statuses []domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

var (
	_ domainlistings.Repository = listingRepo{}
	_ domainbooking.Repository  = bookingRepo{}
)
