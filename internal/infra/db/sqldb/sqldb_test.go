package sqldb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"staybook/internal/app/handlers/booking"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
)

var created = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedListing(t *testing.T, repo *ListingRepository, id string, price int64) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID: domainlistings.ListingID(id), Owner: "host-1", Title: "Cozy Apartment", Location: "Dhaka", PricePerNight: price, Now: created,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), l))
	return l
}

func TestListingRepository_VersionedSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	l := seedListing(t, repo, "l-1", 5000)
	assert.Equal(t, int64(1), l.Version)

	stale, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)

	_, err = l.ChangePrice(6000, created.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, l))
	assert.Equal(t, int64(2), l.Version)

	_, err = stale.SetStatus(domainlistings.StatusInactive, created.Add(2*time.Hour))
	require.NoError(t, err)
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, domainlistings.ErrConcurrentUpdate)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	got, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), got.PricePerNight.Amount)
	assert.Equal(t, domainlistings.StatusActive, got.Status)
	assert.True(t, got.CreatedAt.Equal(created))

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestListingRepository_DuplicateInsertIsConflict(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	seedListing(t, repo, "l-1", 5000)

	dup, err := domainlistings.NewListing(domainlistings.CreateParams{ID: "l-1", Owner: "host-2", Title: "Other", Location: "Sylhet", Now: created})
	require.NoError(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(repo.Save(context.Background(), dup)))
}

func TestBookingRepository_RoundTripsTransitions(t *testing.T) {
	db := openTestDB(t)
	listingsRepo := NewListingRepository(db)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	listing := seedListing(t, listingsRepo, "l-1", 5000)

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "b-1", Listing: listing, GuestID: "guest-1", GuestName: "Ayesha Khan",
		CheckIn: date("2025-09-28"), CheckOut: date("2025-10-01"), Now: created,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, b))

	host := domainbooking.Actor{ID: "host-1", Role: domainbooking.RoleHost}
	_, err = b.Confirm(host, created.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, b))

	got, err := repo.ByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, got.Status)
	assert.Equal(t, int64(15000), got.TotalPrice.Amount)
	require.Len(t, got.Transitions, 1)
	assert.Equal(t, domainbooking.StatusPending, got.Transitions[0].From)
	assert.Equal(t, domainbooking.RoleHost, got.Transitions[0].Role)
	assert.True(t, got.Range.CheckIn.Equal(date("2025-09-28")))

	due, err := repo.ListDue(ctx, date("2025-10-01"))
	require.NoError(t, err)
	require.Len(t, due, 1)
	due, err = repo.ListDue(ctx, date("2025-09-30"))
	require.NoError(t, err)
	assert.Empty(t, due)

	live, err := repo.ListByListing(ctx, "l-1", domainbooking.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, live)
	byHost, err := repo.ListByHost(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, byHost, 1)
}

func TestUnit_RollbackDiscardsWrites(t *testing.T) {
	db := openTestDB(t)
	factory := NewFactory(db)
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	txCtx := uow.Prepare(ctx, unit)
	l, err := domainlistings.NewListing(domainlistings.CreateParams{ID: "l-1", Owner: "host-1", Title: "Cozy", Location: "Dhaka", Now: created})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(txCtx, l))
	require.NoError(t, unit.Rollback(txCtx))

	_, err = NewListingRepository(db).ByID(ctx, "l-1")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestUnit_LockListing(t *testing.T) {
	db := openTestDB(t)
	seedListing(t, NewListingRepository(db), "l-1", 5000)
	factory := NewFactory(db)
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	txCtx := uow.Prepare(ctx, unit)
	require.NoError(t, unit.LockListing(txCtx, "l-1"))
	assert.ErrorIs(t, unit.LockListing(txCtx, "missing"), domainlistings.ErrListingNotFound)
	require.NoError(t, unit.Commit(txCtx))
}

func TestCreateBooking_RejectsOverlapAndWritesOutbox(t *testing.T) {
	db := openTestDB(t)
	seedListing(t, NewListingRepository(db), "l-1", 5000)
	box := NewOutboxStore(db)
	ids := []string{"b-1", "b-2"}
	handler := &booking.CreateBookingHandler{
		UoWFactory: NewFactory(db),
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        func() time.Time { return created },
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	}
	ctx := context.Background()

	first, err := handler.Handle(ctx, booking.CreateBookingCommand{
		GuestID: "guest-1", ListingID: "l-1", GuestName: "Ayesha Khan",
		CheckIn: date("2025-09-28"), CheckOut: date("2025-10-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", first.Status)
	assert.Equal(t, int64(15000), first.TotalPrice)

	_, err = handler.Handle(ctx, booking.CreateBookingCommand{
		GuestID: "guest-2", ListingID: "l-1", GuestName: "Rahim Ahmed",
		CheckIn: date("2025-09-30"), CheckOut: date("2025-10-02"),
	})
	assert.ErrorIs(t, err, domainbooking.ErrOverlap)

	rec, err := box.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "booking.created", rec.Name)
	assert.Equal(t, "b-1", rec.Aggregate)

	next, err := box.Claim(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestOutboxStore_RetriesAfterFailure(t *testing.T) {
	db := openTestDB(t)
	now := created
	box := NewOutboxStore(db)
	box.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e-1", Name: "booking.created", Payload: []byte(`{}`), OccurredAt: created, Aggregate: "b-1", Headers: map[string]string{"event-name": "booking.created"}}))

	rec, err := box.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "booking.created", rec.Headers["event-name"])
	require.NoError(t, box.MarkFailed(ctx, rec.ID, now.Add(time.Minute), "broker down"))

	rec, err = box.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, rec, "not due before the backoff elapses")

	now = now.Add(2 * time.Minute)
	rec, err = box.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Attempts)
	require.NoError(t, box.MarkSent(ctx, rec.ID))

	rec, err = box.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestIdempotencyStore_FirstRecordWins(t *testing.T) {
	db := openTestDB(t)
	store := NewIdempotencyStore(db)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "booking.create:k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "booking.create:k1", Payload: []byte(`{"id":"b-1"}`), OccurredAt: created}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "booking.create:k1", Error: "late", ErrorKind: "conflict", OccurredAt: created}))

	rec, found, err := store.Get(ctx, "booking.create:k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"id":"b-1"}`, string(rec.Payload))
	assert.Empty(t, rec.Error)
}
