package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

// Factory wires the in-memory store into a unit-of-work boundary.
type Factory struct {
	Store  *Store
	Outbox *Outbox
}

// ErrFactoryMisconfigured indicates a missing store.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// ErrUnitFinished is returned when a unit is used after Commit or Rollback.
var ErrUnitFinished = errors.New("memory: unit of work already finished")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:        f.Store,
		outbox:       f.Outbox,
		readOnly:     opts.ReadOnly,
		listings:     make(map[domainlistings.ListingID]*domainlistings.Listing),
		listingBase:  make(map[domainlistings.ListingID]int64),
		bookings:     make(map[domainbooking.BookingID]*domainbooking.Booking),
		bookingBase:  make(map[domainbooking.BookingID]int64),
		lockedByUnit: make(map[domainlistings.ListingID]struct{}),
	}, nil
}

// Unit stages writes and applies them on Commit after re-checking the
// versions it read. Listing locks are held until the unit finishes.
type Unit struct {
	mu       sync.Mutex
	store    *Store
	outbox   *Outbox
	readOnly bool
	finished bool

	listings    map[domainlistings.ListingID]*domainlistings.Listing
	listingBase map[domainlistings.ListingID]int64
	bookings    map[domainbooking.BookingID]*domainbooking.Booking
	bookingBase map[domainbooking.BookingID]int64
	events      []appoutbox.EventRecord

	lockedByUnit map[domainlistings.ListingID]struct{}
}

func (u *Unit) Listings() domainlistings.Repository {
	return listingRepo{unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return bookingRepo{unit: u}
}

func (u *Unit) LockListing(ctx context.Context, id domainlistings.ListingID) error {
	u.mu.Lock()
	if u.finished {
		u.mu.Unlock()
		return ErrUnitFinished
	}
	if _, held := u.lockedByUnit[id]; held {
		u.mu.Unlock()
		return nil
	}
	u.mu.Unlock()

	if err := u.store.locks.acquire(ctx, id); err != nil {
		return err
	}
	u.mu.Lock()
	u.lockedByUnit[id] = struct{}{}
	u.mu.Unlock()
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return ErrUnitFinished
	}
	defer u.finish()

	s := u.store
	s.mu.Lock()
	for id, base := range u.listingBase {
		if currentListingVersion(s, id) != base {
			s.mu.Unlock()
			return domainlistings.ErrConcurrentUpdate
		}
	}
	for id, base := range u.bookingBase {
		if currentBookingVersion(s, id) != base {
			s.mu.Unlock()
			return domainbooking.ErrConcurrentUpdate
		}
	}
	for id, l := range u.listings {
		s.listings[id] = l
	}
	for id, b := range u.bookings {
		s.bookings[id] = b
	}
	s.mu.Unlock()

	if u.outbox != nil && len(u.events) > 0 {
		u.outbox.enqueue(u.events...)
	}
	return nil
}

func (u *Unit) Rollback(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil
	}
	u.finish()
	return nil
}

// finish releases locks and drops staged state; callers hold u.mu.
func (u *Unit) finish() {
	u.finished = true
	for id := range u.lockedByUnit {
		u.store.locks.release(id)
	}
	u.lockedByUnit = nil
	u.listings = nil
	u.bookings = nil
	u.events = nil
}

func (u *Unit) stageEvent(rec appoutbox.EventRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return ErrUnitFinished
	}
	u.events = append(u.events, rec)
	return nil
}

func currentListingVersion(s *Store, id domainlistings.ListingID) int64 {
	if l, ok := s.listings[id]; ok {
		return l.Version
	}
	return 0
}

func currentBookingVersion(s *Store, id domainbooking.BookingID) int64 {
	if b, ok := s.bookings[id]; ok {
		return b.Version
	}
	return 0
}

var _ uow.UnitOfWork = (*Unit)(nil)
