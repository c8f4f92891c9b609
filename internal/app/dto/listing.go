package dto

import (
	"time"

	domainlistings "staybook/internal/domain/listings"
)

// Money amounts are raw minor units; formatting belongs to the presentation layer.

type Listing struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Title         string    `json:"title"`
	Location      string    `json:"location"`
	PricePerNight int64     `json:"price_per_night"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	return Listing{
		ID:            string(l.ID),
		Owner:         string(l.Owner),
		Title:         l.Title,
		Location:      l.Location,
		PricePerNight: l.PricePerNight.Amount,
		Status:        string(l.Status),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func MapListings(items []*domainlistings.Listing) []Listing {
	out := make([]Listing, 0, len(items))
	for _, l := range items {
		out = append(out, MapListing(l))
	}
	return out
}
