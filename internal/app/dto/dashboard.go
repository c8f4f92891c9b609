package dto

import (
	"time"

	"staybook/internal/domain/metrics"
)

type HostDashboard struct {
	AsOf                  time.Time      `json:"as_of"`
	ListingsByStatus      map[string]int `json:"listings_by_status"`
	TotalListings         int            `json:"total_listings"`
	ActiveListings        int            `json:"active_listings"`
	CurrentMonthEarnings  int64          `json:"current_month_earnings"`
	PreviousMonthEarnings int64          `json:"previous_month_earnings"`
	// EarningsChange is null when the previous month earned nothing.
	EarningsChange *float64  `json:"earnings_change"`
	OccupancyRate  int       `json:"occupancy_rate"`
	TotalBookings  int       `json:"total_bookings"`
	UpcomingStays  []Booking `json:"upcoming_stays"`
	Listings       []Listing `json:"listings"`
}

type GuestDashboard struct {
	AsOf               time.Time `json:"as_of"`
	CurrentMonthSpend  int64     `json:"current_month_spend"`
	PreviousMonthSpend int64     `json:"previous_month_spend"`
	SpendChange        *float64  `json:"spend_change"`
	TotalTrips         int       `json:"total_trips"`
	UpcomingStays      []Booking `json:"upcoming_stays"`
}

func MapHostDashboard(d metrics.HostDashboard) HostDashboard {
	byStatus := make(map[string]int, len(d.ListingsByStatus))
	for s, n := range d.ListingsByStatus {
		byStatus[string(s)] = n
	}
	return HostDashboard{
		AsOf:                  d.AsOf,
		ListingsByStatus:      byStatus,
		TotalListings:         d.TotalListings,
		ActiveListings:        d.ActiveListings,
		CurrentMonthEarnings:  d.CurrentMonthEarnings.Amount,
		PreviousMonthEarnings: d.PreviousMonthEarnings.Amount,
		EarningsChange:        d.EarningsChange,
		OccupancyRate:         d.OccupancyRate,
		TotalBookings:         d.TotalBookings,
		UpcomingStays:         MapBookings(d.UpcomingStays),
		Listings:              MapListings(d.Listings),
	}
}

func MapGuestDashboard(d metrics.GuestDashboard) GuestDashboard {
	return GuestDashboard{
		AsOf:               d.AsOf,
		CurrentMonthSpend:  d.CurrentMonthSpend.Amount,
		PreviousMonthSpend: d.PreviousMonthSpend.Amount,
		SpendChange:        d.SpendChange,
		TotalTrips:         d.TotalTrips,
		UpcomingStays:      MapBookings(d.UpcomingStays),
	}
}
