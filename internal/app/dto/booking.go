package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
)

type Transition struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	ActorID string    `json:"actor_id"`
	Role    string    `json:"role"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

type Booking struct {
	ID           string       `json:"id"`
	ListingID    string       `json:"listing_id"`
	GuestID      string       `json:"guest_id"`
	HostID       string       `json:"host_id"`
	GuestName    string       `json:"guest_name"`
	CheckIn      time.Time    `json:"check_in"`
	CheckOut     time.Time    `json:"check_out"`
	Nights       int          `json:"nights"`
	NightlyPrice int64        `json:"nightly_price"`
	TotalPrice   int64        `json:"total_price"`
	Status       string       `json:"status"`
	Transitions  []Transition `json:"transitions,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	out := Booking{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		GuestID:      b.GuestID,
		HostID:       string(b.HostID),
		GuestName:    b.GuestName,
		CheckIn:      b.Range.CheckIn,
		CheckOut:     b.Range.CheckOut,
		Nights:       b.Nights(),
		NightlyPrice: b.NightlyPrice.Amount,
		TotalPrice:   b.TotalPrice.Amount,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	for _, t := range b.Transitions {
		out.Transitions = append(out.Transitions, Transition{
			From:    string(t.From),
			To:      string(t.To),
			ActorID: t.ActorID,
			Role:    string(t.Role),
			Reason:  t.Reason,
			At:      t.At,
		})
	}
	return out
}

func MapBookings(items []*domainbooking.Booking) []Booking {
	out := make([]Booking, 0, len(items))
	for _, b := range items {
		out = append(out, MapBooking(b))
	}
	return out
}
