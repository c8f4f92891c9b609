package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/engine"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

func TestSeed_CreatesConfirmedSampleBookings(t *testing.T) {
	box := memory.NewOutbox()
	e := engine.New(engine.Deps{
		UoWFactory: memory.Factory{Store: memory.NewStore(), Outbox: box},
		Outbox:     box,
		Now:        func() time.Time { return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) },
	})
	ctx := context.Background()

	res, err := Seed(ctx, e.Commands, e.Queries, "host-1", "guest-1")
	require.NoError(t, err)
	require.Len(t, res.Listings, 3)
	require.Len(t, res.Bookings, 2)
	assert.Equal(t, int64(15000), res.Bookings[0].TotalPrice)
	assert.Equal(t, int64(24000), res.Bookings[1].TotalPrice)
	for _, b := range res.Bookings {
		assert.Equal(t, "confirmed", b.Status)
		assert.Equal(t, "host-1", b.HostID)
	}

	again, err := Seed(ctx, e.Commands, e.Queries, "host-1", "guest-1")
	require.NoError(t, err)
	assert.Empty(t, again.Listings)
}

func TestSampleBookingsHaveValidStays(t *testing.T) {
	for _, b := range sampleBookings {
		assert.NotPanics(t, func() {
			stay := daterange.MustParse(b.CheckIn, b.CheckOut)
			assert.Positive(t, stay.Nights())
		}, b.GuestName)
	}
}
