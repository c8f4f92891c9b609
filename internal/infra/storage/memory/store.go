package memory

import (
	"context"
	"sync"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/events"
)

// Store holds committed listings and bookings. All access goes through a
// Unit, which stages writes and applies them atomically on commit.
type Store struct {
	mu       sync.RWMutex
	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	locks    *lockTable
}

func NewStore() *Store {
	return &Store{
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		locks:    newLockTable(),
	}
}

func (s *Store) listing(id domainlistings.ListingID) (*domainlistings.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, false
	}
	return cloneListing(l), true
}

func (s *Store) listingsWhere(match func(*domainlistings.Listing) bool) []*domainlistings.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0)
	for _, l := range s.listings {
		if match(l) {
			out = append(out, cloneListing(l))
		}
	}
	return out
}

func (s *Store) booking(id domainbooking.BookingID) (*domainbooking.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, false
	}
	return cloneBooking(b), true
}

func (s *Store) bookingsWhere(match func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range s.bookings {
		if match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	c := *l
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	c.Transitions = append([]domainbooking.Transition(nil), b.Transitions...)
	return &c
}

// lockTable hands out one single-slot semaphore per listing.
type lockTable struct {
	mu    sync.Mutex
	slots map[domainlistings.ListingID]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[domainlistings.ListingID]chan struct{})}
}

func (t *lockTable) slot(id domainlistings.ListingID) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[id] = ch
	}
	return ch
}

func (t *lockTable) acquire(ctx context.Context, id domainlistings.ListingID) error {
	select {
	case t.slot(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *lockTable) release(id domainlistings.ListingID) {
	select {
	case <-t.slot(id):
	default:
	}
}
