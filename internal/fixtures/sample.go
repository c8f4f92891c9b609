// Package fixtures seeds demo listings and bookings through the command bus.
// It is never invoked by the engine itself.
package fixtures

import (
	"context"
	"fmt"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/daterange"
)

type sampleListing struct {
	Title    string
	Location string
	Price    int64
}

type sampleBooking struct {
	Listing   int
	GuestName string
	CheckIn   string
	CheckOut  string
}

var sampleListings = []sampleListing{
	{Title: "Cozy Apartment in Dhaka", Location: "Dhaka", Price: 5000},
	{Title: "Lakeview House in Sylhet", Location: "Sylhet", Price: 8000},
	{Title: "Modern Flat in Chittagong", Location: "Chittagong", Price: 6500},
}

var sampleBookings = []sampleBooking{
	{Listing: 0, GuestName: "Ayesha Khan", CheckIn: "2025-09-28", CheckOut: "2025-10-01"},
	{Listing: 1, GuestName: "Rahim Ahmed", CheckIn: "2025-10-05", CheckOut: "2025-10-08"},
}

// Result lists what Seed created.
type Result struct {
	Listings []dto.Listing
	Bookings []dto.Booking
}

// Seed creates the sample listings for host and two confirmed bookings made
// by guest. A host that already owns listings is left untouched.
func Seed(ctx context.Context, cmds commands.Bus, qs queries.Bus, host, guest string) (Result, error) {
	var res Result
	existing, err := queries.Ask[listingapp.ListHostListingsQuery, *dto.ListingCollection](ctx, qs, listingapp.ListHostListingsQuery{Owner: host})
	if err != nil {
		return res, err
	}
	if existing != nil && len(existing.Items) > 0 {
		return res, nil
	}

	for _, l := range sampleListings {
		created, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, cmds, listingapp.CreateListingCommand{
			Owner:         host,
			Title:         l.Title,
			Location:      l.Location,
			PricePerNight: l.Price,
		})
		if err != nil {
			return res, fmt.Errorf("fixtures: listing %q: %w", l.Title, err)
		}
		res.Listings = append(res.Listings, *created)
	}

	for _, b := range sampleBookings {
		stay := daterange.MustParse(b.CheckIn, b.CheckOut)
		created, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](ctx, cmds, bookingapp.CreateBookingCommand{
			GuestID:   guest,
			ListingID: res.Listings[b.Listing].ID,
			GuestName: b.GuestName,
			CheckIn:   stay.CheckIn,
			CheckOut:  stay.CheckOut,
		})
		if err != nil {
			return res, fmt.Errorf("fixtures: booking for %s: %w", b.GuestName, err)
		}
		confirmed, err := commands.Dispatch[bookingapp.TransitionBookingCommand, *dto.Booking](ctx, cmds, bookingapp.ConfirmBooking(host, created.ID))
		if err != nil {
			return res, fmt.Errorf("fixtures: confirm %s: %w", created.ID, err)
		}
		res.Bookings = append(res.Bookings, *confirmed)
	}
	return res, nil
}
