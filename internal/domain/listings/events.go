package listings

import (
	"time"

	"staybook/internal/domain/shared/money"
)

type ListingCreated struct {
	ListingID ListingID
	Owner     HostID
	Status    Status
	At        time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingStatusChanged struct {
	ListingID ListingID
	From      Status
	To        Status
	At        time.Time
}

func (e ListingStatusChanged) EventName() string     { return "listing.status_changed" }
func (e ListingStatusChanged) AggregateID() string   { return string(e.ListingID) }
func (e ListingStatusChanged) OccurredAt() time.Time { return e.At }

type ListingPriceChanged struct {
	ListingID ListingID
	Previous  money.Money
	Current   money.Money
	At        time.Time
}

func (e ListingPriceChanged) EventName() string     { return "listing.price_changed" }
func (e ListingPriceChanged) AggregateID() string   { return string(e.ListingID) }
func (e ListingPriceChanged) OccurredAt() time.Time { return e.At }
