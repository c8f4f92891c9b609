package metrics

import (
	"sort"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const (
	DefaultUpcomingLimit  = 3
	DefaultListingPreview = 3

	// Occupancy weights. The rate is a bounded, monotonic heuristic over the
	// active listing count and the number of stays touching the current month.
	occupancyPerListing = 20
	occupancyPerStay    = 5
	occupancyCap        = 100
)

// HostDashboard is the host-facing snapshot. Amounts are raw minor units.
type HostDashboard struct {
	AsOf                  time.Time
	ListingsByStatus      map[listings.Status]int
	TotalListings         int
	ActiveListings        int
	CurrentMonthEarnings  money.Money
	PreviousMonthEarnings money.Money
	// EarningsChange is the percent change against the previous month; nil
	// when the previous month earned nothing.
	EarningsChange *float64
	OccupancyRate  int
	TotalBookings  int
	UpcomingStays  []*booking.Booking
	Listings       []*listings.Listing
}

// GuestDashboard is the guest-facing snapshot.
type GuestDashboard struct {
	AsOf               time.Time
	CurrentMonthSpend  money.Money
	PreviousMonthSpend money.Money
	SpendChange        *float64
	TotalTrips         int
	UpcomingStays      []*booking.Booking
}

type HostInput struct {
	Host           listings.HostID
	Listings       []*listings.Listing
	Bookings       []*booking.Booking
	AsOf           time.Time
	UpcomingLimit  int
	ListingPreview int
}

type GuestInput struct {
	Guest         string
	Bookings      []*booking.Booking
	AsOf          time.Time
	UpcomingLimit int
}

// ComputeHost derives the host dashboard. Records not belonging to the host
// are ignored so callers may pass broader slices.
func ComputeHost(in HostInput) HostDashboard {
	current := MonthOf(in.AsOf)
	previous := PreviousMonthOf(in.AsOf)

	out := HostDashboard{
		AsOf:             in.AsOf.UTC(),
		ListingsByStatus: make(map[listings.Status]int, len(listings.Statuses)),
	}
	for _, s := range listings.Statuses {
		out.ListingsByStatus[s] = 0
	}

	owned := make([]*listings.Listing, 0, len(in.Listings))
	for _, l := range in.Listings {
		if l == nil || l.Owner != in.Host {
			continue
		}
		owned = append(owned, l)
		out.ListingsByStatus[l.Status]++
	}
	sort.SliceStable(owned, func(i, j int) bool { return owned[i].CreatedAt.Before(owned[j].CreatedAt) })
	out.TotalListings = len(owned)
	out.ActiveListings = out.ListingsByStatus[listings.StatusActive]
	out.Listings = head(owned, orDefault(in.ListingPreview, DefaultListingPreview))

	hosted := make([]*booking.Booking, 0, len(in.Bookings))
	stays := 0
	for _, b := range in.Bookings {
		if b == nil || b.HostID != in.Host {
			continue
		}
		hosted = append(hosted, b)
		if b.Status.Earning() && b.Range.Overlaps(current) {
			stays++
		}
	}
	out.TotalBookings = len(hosted)
	out.CurrentMonthEarnings = EarningsIn(hosted, current)
	out.PreviousMonthEarnings = EarningsIn(hosted, previous)
	out.EarningsChange = change(out.CurrentMonthEarnings, out.PreviousMonthEarnings)
	out.OccupancyRate = Occupancy(out.ActiveListings, stays)
	out.UpcomingStays = Upcoming(hosted, in.AsOf, orDefault(in.UpcomingLimit, DefaultUpcomingLimit))
	return out
}

// ComputeGuest derives the guest dashboard from the guest's bookings.
func ComputeGuest(in GuestInput) GuestDashboard {
	trips := make([]*booking.Booking, 0, len(in.Bookings))
	for _, b := range in.Bookings {
		if b == nil || b.GuestID != in.Guest {
			continue
		}
		trips = append(trips, b)
	}
	out := GuestDashboard{
		AsOf:               in.AsOf.UTC(),
		CurrentMonthSpend:  EarningsIn(trips, MonthOf(in.AsOf)),
		PreviousMonthSpend: EarningsIn(trips, PreviousMonthOf(in.AsOf)),
		TotalTrips:         len(trips),
		UpcomingStays:      Upcoming(trips, in.AsOf, orDefault(in.UpcomingLimit, DefaultUpcomingLimit)),
	}
	out.SpendChange = change(out.CurrentMonthSpend, out.PreviousMonthSpend)
	return out
}

// EarningsIn sums total prices of confirmed and completed bookings whose
// check-in date falls inside month.
func EarningsIn(bookings []*booking.Booking, month daterange.DateRange) money.Money {
	var total money.Money
	for _, b := range bookings {
		if !b.Status.Earning() || !month.ContainsDate(b.Range.CheckIn) {
			continue
		}
		total = total.Add(b.TotalPrice)
	}
	return total
}

// Upcoming returns up to limit confirmed bookings checking in on or after
// the asOf date, earliest first.
func Upcoming(bookings []*booking.Booking, asOf time.Time, limit int) []*booking.Booking {
	today := daterange.Date(asOf)
	out := make([]*booking.Booking, 0)
	for _, b := range bookings {
		if b.Status != booking.StatusConfirmed || b.Range.CheckIn.Before(today) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
	})
	return head(out, limit)
}

// Occupancy is 0 without active listings and otherwise grows with both
// arguments up to 100. It is not a ratio of occupied nights.
func Occupancy(activeListings, stays int) int {
	if activeListings <= 0 {
		return 0
	}
	if stays < 0 {
		stays = 0
	}
	rate := activeListings*occupancyPerListing + stays*occupancyPerStay
	if rate > occupancyCap {
		return occupancyCap
	}
	return rate
}

// MonthOf returns the calendar month (UTC) containing t as a half-open range.
func MonthOf(t time.Time) daterange.DateRange {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return daterange.DateRange{CheckIn: start, CheckOut: start.AddDate(0, 1, 0)}
}

func PreviousMonthOf(t time.Time) daterange.DateRange {
	current := MonthOf(t)
	return daterange.DateRange{CheckIn: current.CheckIn.AddDate(0, -1, 0), CheckOut: current.CheckIn}
}

func change(current, previous money.Money) *float64 {
	pct, ok := current.PercentChange(previous)
	if !ok {
		return nil
	}
	return &pct
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
