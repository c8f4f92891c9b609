package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
)

var docNow = time.Date(2025, 9, 20, 10, 30, 0, 0, time.UTC)

func TestMapError(t *testing.T) {
	boom := errors.New("socket closed")
	cases := []struct {
		name string
		err  error
		want error
		kind apperr.Kind
	}{
		{"duplicate key", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}, domainbooking.ErrConcurrentUpdate, apperr.KindConflict},
		{"write conflict", mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}, domainbooking.ErrConcurrentUpdate, apperr.KindConflict},
		{"wrapped write conflict", fmt.Errorf("update: %w", mongo.CommandError{Code: writeConflictCode}), domainbooking.ErrConcurrentUpdate, apperr.KindConflict},
		{"transient transaction", mongo.CommandError{Code: 251, Labels: []string{transientTxnLabel}}, domainbooking.ErrConcurrentUpdate, apperr.KindConflict},
		{"other server error", mongo.CommandError{Code: 13, Name: "Unauthorized"}, nil, apperr.KindStorage},
		{"network", boom, boom, apperr.KindStorage},
		{"already classified", domainlistings.ErrListingNotFound, domainlistings.ErrListingNotFound, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError("booking.save", tc.err, domainbooking.ErrConcurrentUpdate)
			require.Error(t, got)
			assert.Equal(t, tc.kind, apperr.KindOf(got))
			if tc.want != nil {
				assert.ErrorIs(t, got, tc.want)
			}
		})
	}

	assert.NoError(t, mapError("booking.save", nil, domainbooking.ErrConcurrentUpdate))
}

func TestMapErrorLockConflict(t *testing.T) {
	err := mapError("mongo.lock_listing", mongo.CommandError{Code: writeConflictCode}, ErrListingLocked)
	assert.ErrorIs(t, err, ErrListingLocked)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLookupError(t *testing.T) {
	err := lookupError("booking.by_id", mongo.ErrNoDocuments, domainbooking.ErrBookingNotFound, domainbooking.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = lookupError("listings.by_id", mongo.ErrNoDocuments, domainlistings.ErrListingNotFound, domainlistings.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)

	err = lookupError("listings.by_id", mongo.CommandError{Code: writeConflictCode}, domainlistings.ErrListingNotFound, domainlistings.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, domainlistings.ErrConcurrentUpdate)

	err = lookupError("listings.by_id", errors.New("timeout"), domainlistings.ErrListingNotFound, domainlistings.ErrConcurrentUpdate)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}

func TestMillisRoundTrip(t *testing.T) {
	local := time.Date(2025, 10, 1, 14, 0, 0, 123456789, time.FixedZone("BDT", 6*60*60))
	got := timestampToTime(toMillis(local))
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local.Truncate(time.Millisecond)))
}

func TestListingDocumentRoundTrip(t *testing.T) {
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID: "l-1", Owner: "host-1", Title: "Cozy Apartment", Location: "Dhaka", PricePerNight: 5000, Now: docNow,
	})
	require.NoError(t, err)
	l.Version = 4

	doc := newListingDocument(l)
	assert.Equal(t, "host-1", doc.Owner)
	assert.Equal(t, int64(5000), doc.PricePerNight)

	got := doc.toAggregate()
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, l.Owner, got.Owner)
	assert.Equal(t, l.Title, got.Title)
	assert.Equal(t, l.Location, got.Location)
	assert.Equal(t, l.PricePerNight, got.PricePerNight)
	assert.Equal(t, l.Status, got.Status)
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))
	assert.EqualValues(t, 4, got.Version)
}

func TestBookingDocumentRoundTrip(t *testing.T) {
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID: "l-1", Owner: "host-1", Title: "Cozy Apartment", Location: "Dhaka", PricePerNight: 5000, Now: docNow,
	})
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "b-1", Listing: l, GuestID: "guest-1", GuestName: "Ayesha Khan",
		CheckIn: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC), Now: docNow,
	})
	require.NoError(t, err)
	_, err = b.Cancel(domainbooking.Actor{ID: "guest-1", Role: domainbooking.RoleGuest}, "plans changed", docNow.Add(time.Hour))
	require.NoError(t, err)

	doc := newBookingDocument(b)
	require.Len(t, doc.Transitions, len(b.Transitions))
	assert.Equal(t, int64(15000), doc.TotalPrice)

	got := doc.toAggregate()
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.ListingID, got.ListingID)
	assert.Equal(t, b.HostID, got.HostID)
	assert.Equal(t, b.GuestID, got.GuestID)
	assert.Equal(t, b.GuestName, got.GuestName)
	assert.Equal(t, b.Status, got.Status)
	assert.Equal(t, b.NightlyPrice, got.NightlyPrice)
	assert.Equal(t, b.TotalPrice, got.TotalPrice)
	assert.True(t, b.Range.CheckIn.Equal(got.Range.CheckIn))
	assert.True(t, b.Range.CheckOut.Equal(got.Range.CheckOut))
	assert.Equal(t, 3, got.Nights())
	require.Len(t, got.Transitions, len(b.Transitions))
	last := got.Transitions[len(got.Transitions)-1]
	assert.Equal(t, domainbooking.StatusCancelled, last.To)
	assert.Equal(t, domainbooking.RoleGuest, last.Role)
	assert.Equal(t, "plans changed", last.Reason)
	assert.True(t, docNow.Add(time.Hour).Equal(last.At))
}
