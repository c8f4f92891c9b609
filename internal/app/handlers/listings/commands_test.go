package listings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
	"staybook/internal/infra/storage/memory"
)

func newHandler() (*listingapp.CommandHandler, memory.Factory, *memory.Outbox) {
	box := memory.NewOutbox()
	factory := memory.Factory{Store: memory.NewStore(), Outbox: box}
	return &listingapp.CommandHandler{
		UoWFactory: factory,
		Outbox:     box,
		Now:        func() time.Time { return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC) },
		NewID:      func() string { return "listing-1" },
	}, factory, box
}

func stored(t *testing.T, f memory.Factory, id string) *domainlistings.Listing {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())
	l, err := unit.Listings().ByID(context.Background(), domainlistings.ListingID(id))
	require.NoError(t, err)
	return l
}

func TestSetStatusAndChangePriceCommitOwnUnit(t *testing.T) {
	ctx := context.Background()
	h, f, box := newHandler()

	created, err := h.Create(ctx, listingapp.CreateListingCommand{Owner: "host-1", Title: "Lakeview House", Location: "Sylhet", PricePerNight: 8000})
	require.NoError(t, err)
	assert.Equal(t, "active", created.Status)

	updated, err := h.SetStatus(ctx, listingapp.SetListingStatusCommand{ActorID: "host-1", ListingID: created.ID, Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, "inactive", updated.Status)

	priced, err := h.ChangePrice(ctx, listingapp.ChangeListingPriceCommand{ActorID: "host-1", ListingID: created.ID, PricePerNight: 9000})
	require.NoError(t, err)
	assert.Equal(t, int64(9000), priced.PricePerNight)

	l := stored(t, f, created.ID)
	assert.Equal(t, domainlistings.StatusInactive, l.Status)
	assert.Equal(t, int64(9000), l.PricePerNight.Amount)
	assert.EqualValues(t, 3, l.Version)
	assert.Equal(t, 3, box.Pending())
}

func TestSetStatusSameValueRecordsNothing(t *testing.T) {
	ctx := context.Background()
	h, f, box := newHandler()
	created, err := h.Create(ctx, listingapp.CreateListingCommand{Owner: "host-1", Title: "Modern Flat", Location: "Chittagong", PricePerNight: 6500})
	require.NoError(t, err)

	_, err = h.SetStatus(ctx, listingapp.SetListingStatusCommand{ActorID: "host-1", ListingID: created.ID, Status: "active"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored(t, f, created.ID).Version)
	assert.Equal(t, 1, box.Pending())
}

func TestListingCommandsHideOtherHostsListings(t *testing.T) {
	ctx := context.Background()
	h, f, _ := newHandler()
	created, err := h.Create(ctx, listingapp.CreateListingCommand{Owner: "host-1", Title: "Cozy Apartment", Location: "Dhaka", PricePerNight: 5000})
	require.NoError(t, err)

	_, err = h.SetStatus(ctx, listingapp.SetListingStatusCommand{ActorID: "host-2", ListingID: created.ID, Status: "inactive"})
	assert.ErrorIs(t, err, domainlistings.ErrNotOwner)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = h.ChangePrice(ctx, listingapp.ChangeListingPriceCommand{ActorID: "host-2", ListingID: created.ID, PricePerNight: 1})
	assert.ErrorIs(t, err, domainlistings.ErrNotOwner)

	_, err = h.ChangePrice(ctx, listingapp.ChangeListingPriceCommand{ActorID: "host-1", ListingID: "missing", PricePerNight: 1})
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)

	l := stored(t, f, created.ID)
	assert.Equal(t, domainlistings.StatusActive, l.Status)
	assert.Equal(t, int64(5000), l.PricePerNight.Amount)
}
