package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

var testNow = time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)

func newListing(t *testing.T, id string) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:            domainlistings.ListingID(id),
		Owner:         "host-1",
		Title:         "Cozy Apartment",
		Location:      "Dhaka",
		PricePerNight: 5000,
		Now:           testNow,
	})
	require.NoError(t, err)
	return l
}

func newBooking(t *testing.T, id string, l *domainlistings.Listing, in, out time.Time) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		Listing:   l,
		GuestID:   "guest-1",
		GuestName: "Ayesha Khan",
		CheckIn:   in,
		CheckOut:  out,
		Now:       testNow,
	})
	require.NoError(t, err)
	return b
}

func begin(t *testing.T, f Factory, readOnly bool) uow.UnitOfWork {
	t.Helper()
	u, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: readOnly})
	require.NoError(t, err)
	return u
}

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFactoryRequiresStore(t *testing.T) {
	_, err := Factory{}.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)
}

func TestCommitPublishesStagedWrites(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}

	writer := begin(t, f, false)
	l := newListing(t, "l1")
	require.NoError(t, writer.Listings().Save(ctx, l))
	assert.EqualValues(t, 1, l.Version)

	staged, err := writer.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Cozy Apartment", staged.Title)

	reader := begin(t, f, true)
	_, err = reader.Listings().ByID(ctx, "l1")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
	require.NoError(t, reader.Rollback(ctx))

	require.NoError(t, writer.Commit(ctx))

	reader = begin(t, f, true)
	got, err := reader.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Version)
	owned, err := reader.Listings().ListByOwner(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}

	u := begin(t, f, false)
	require.NoError(t, u.Listings().Save(ctx, newListing(t, "l1")))
	require.NoError(t, u.Rollback(ctx))
	require.NoError(t, u.Rollback(ctx))
	assert.ErrorIs(t, u.Commit(ctx), ErrUnitFinished)

	_, err := u.Listings().ByID(ctx, "l1")
	assert.ErrorIs(t, err, ErrUnitFinished)

	check := begin(t, f, true)
	_, err = check.Listings().ByID(ctx, "l1")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestReadOnlyUnitRejectsSaves(t *testing.T) {
	u := begin(t, Factory{Store: NewStore()}, true)
	err := u.Listings().Save(context.Background(), newListing(t, "l1"))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestStaleVersionIsConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	seed := begin(t, f, false)
	require.NoError(t, seed.Listings().Save(ctx, newListing(t, "l1")))
	require.NoError(t, seed.Commit(ctx))

	first := begin(t, f, false)
	second := begin(t, f, false)
	a, err := first.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	b, err := second.Listings().ByID(ctx, "l1")
	require.NoError(t, err)

	_, err = a.ChangePrice(6000, testNow)
	require.NoError(t, err)
	require.NoError(t, first.Listings().Save(ctx, a))
	_, err = b.ChangePrice(7000, testNow)
	require.NoError(t, err)
	require.NoError(t, second.Listings().Save(ctx, b))

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), domainlistings.ErrConcurrentUpdate)

	stale := newListing(t, "l1")
	check := begin(t, f, false)
	assert.ErrorIs(t, check.Listings().Save(ctx, stale), domainlistings.ErrConcurrentUpdate)

	got, err := check.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 6000, got.PricePerNight.Amount)
}

func TestLockListingSerializesUnits(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}

	holder := begin(t, f, false)
	require.NoError(t, holder.LockListing(ctx, "l1"))
	require.NoError(t, holder.LockListing(ctx, "l1"), "re-entrant for the same unit")

	waiter := begin(t, f, false)
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waiter.LockListing(short, "l1"), context.DeadlineExceeded)

	require.NoError(t, holder.Rollback(ctx))
	require.NoError(t, waiter.LockListing(ctx, "l1"))
	require.NoError(t, waiter.Commit(ctx))
}

func TestBookingQueriesMergeStagedAndCommitted(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	l := newListing(t, "l1")

	seed := begin(t, f, false)
	require.NoError(t, seed.Listings().Save(ctx, l))
	early := newBooking(t, "b1", l, day(9, 28), day(10, 1))
	_, err := early.Confirm(domainbooking.Actor{ID: "host-1", Role: domainbooking.RoleHost}, testNow)
	require.NoError(t, err)
	require.NoError(t, seed.Bookings().Save(ctx, early))
	require.NoError(t, seed.Commit(ctx))

	u := begin(t, f, false)
	late := newBooking(t, "b2", l, day(10, 5), day(10, 8))
	require.NoError(t, u.Bookings().Save(ctx, late))

	all, err := u.Bookings().ListByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domainbooking.BookingID("b1"), all[0].ID)

	pending, err := u.Bookings().ListByListing(ctx, "l1", domainbooking.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domainbooking.BookingID("b2"), pending[0].ID)

	byHost, err := u.Bookings().ListByHost(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, byHost, 2)
	byGuest, err := u.Bookings().ListByGuest(ctx, "guest-1")
	require.NoError(t, err)
	assert.Len(t, byGuest, 2)

	due, err := u.Bookings().ListDue(ctx, day(10, 1))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, domainbooking.BookingID("b1"), due[0].ID)

	none, err := u.Bookings().ListDue(ctx, day(9, 30))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = u.Bookings().ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestReturnedAggregatesAreCopies(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	l := newListing(t, "l1")
	u := begin(t, f, false)
	require.NoError(t, u.Listings().Save(ctx, l))
	b := newBooking(t, "b1", l, day(9, 28), day(10, 1))
	require.NoError(t, u.Bookings().Save(ctx, b))
	require.NoError(t, u.Commit(ctx))

	r := begin(t, f, true)
	got, err := r.Bookings().ByID(ctx, "b1")
	require.NoError(t, err)
	got.GuestName = "changed"
	again, err := r.Bookings().ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Ayesha Khan", again.GuestName)
}

func TestOutboxRecordsBecomeVisibleOnCommit(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	f := Factory{Store: NewStore(), Outbox: box}
	rec := appoutbox.EventRecord{ID: "e1", Name: "listing.created", Aggregate: "l1"}

	rolled := begin(t, f, false)
	require.NoError(t, box.Add(uow.Prepare(ctx, rolled), appoutbox.EventRecord{ID: "e0"}))
	require.NoError(t, rolled.Rollback(ctx))
	assert.Empty(t, box.Records())

	u := begin(t, f, false)
	require.NoError(t, box.Add(uow.Prepare(ctx, u), rec))
	claimed, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, claimed)

	require.NoError(t, u.Commit(ctx))
	assert.Equal(t, 1, box.Pending())

	claimed, err = box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "e1", claimed.ID)
	assert.Zero(t, claimed.Attempts)

	require.NoError(t, box.MarkFailed(ctx, "e1", time.Now().Add(-time.Second), "broker down"))
	claimed, err = box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 1, claimed.Attempts)

	require.NoError(t, box.MarkSent(ctx, "e1"))
	assert.Zero(t, box.Pending())
	assert.Len(t, box.Records(), 1)
}

func TestOutboxAddOutsideUnitEnqueuesDirectly(t *testing.T) {
	box := NewOutbox()
	require.NoError(t, box.Add(context.Background(), appoutbox.EventRecord{ID: "e1"}))
	assert.Equal(t, 1, box.Pending())
}

func TestIdempotencyStoreKeepsFirstRecord(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore()
	require.NoError(t, s.Save(ctx, recordFor("k", "first")))
	require.NoError(t, s.Save(ctx, recordFor("k", "second")))

	rec, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first", string(rec.Payload))

	_, found, err = s.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func recordFor(key, payload string) middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: key, Payload: []byte(payload), OccurredAt: testNow}
}
