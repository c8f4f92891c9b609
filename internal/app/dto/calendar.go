package dto

import (
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/shared/daterange"
)

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type Availability struct {
	ListingID string    `json:"listing_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Available bool      `json:"available"`
}

type BlockedDates struct {
	ListingID string      `json:"listing_id"`
	Ranges    []DateRange `json:"ranges"`
}

func MapBlockedDates(cal *availability.Calendar, window *daterange.DateRange) BlockedDates {
	if cal == nil {
		return BlockedDates{Ranges: []DateRange{}}
	}
	blocked := cal.Blocked(window)
	out := BlockedDates{ListingID: string(cal.ListingID), Ranges: make([]DateRange, 0, len(blocked))}
	for _, r := range blocked {
		out.Ranges = append(out.Ranges, DateRange{From: r.CheckIn, To: r.CheckOut})
	}
	return out
}
