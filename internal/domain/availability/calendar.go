package availability

import (
	"sort"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

// Block is a date range held by a live booking.
type Block struct {
	Range     daterange.DateRange
	BookingID booking.BookingID
	Status    booking.Status
}

// Calendar is a read-only snapshot of the live bookings of one listing.
type Calendar struct {
	ListingID listings.ListingID
	Blocks    []Block
}

// NewCalendar keeps only live bookings of the listing, ordered by check-in.
func NewCalendar(id listings.ListingID, bookings []*booking.Booking) *Calendar {
	c := &Calendar{ListingID: id}
	for _, b := range bookings {
		if b == nil || b.ListingID != id || !b.Status.Live() {
			continue
		}
		c.Blocks = append(c.Blocks, Block{Range: b.Range, BookingID: b.ID, Status: b.Status})
	}
	sort.Slice(c.Blocks, func(i, j int) bool {
		return c.Blocks[i].Range.CheckIn.Before(c.Blocks[j].Range.CheckIn)
	})
	return c
}

// Conflicts returns the blocks overlapping r, ignoring the excluded booking.
func (c *Calendar) Conflicts(r daterange.DateRange, exclude booking.BookingID) []Block {
	var out []Block
	for _, block := range c.Blocks {
		if exclude != "" && block.BookingID == exclude {
			continue
		}
		if block.Range.Overlaps(r) {
			out = append(out, block)
		}
	}
	return out
}

func (c *Calendar) CanReserve(r daterange.DateRange, exclude booking.BookingID) bool {
	return len(c.Conflicts(r, exclude)) == 0
}

// Blocked merges overlapping and back-to-back blocks into disjoint ranges.
// With a non-nil window the result is clipped to it.
func (c *Calendar) Blocked(window *daterange.DateRange) []daterange.DateRange {
	merged := make([]daterange.DateRange, 0, len(c.Blocks))
	for _, block := range c.Blocks {
		r := block.Range
		if window != nil {
			clipped, ok := r.Clip(*window)
			if !ok {
				continue
			}
			r = clipped
		}
		if n := len(merged); n > 0 {
			if joined, ok := merged[n-1].Merge(r); ok {
				merged[n-1] = joined
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged
}
