package booking

import (
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

type BookingCreated struct {
	BookingID BookingID
	ListingID listings.ListingID
	GuestID   string
	HostID    listings.HostID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	ListingID listings.ListingID
	GuestID   string
	HostID    listings.HostID
	Range     daterange.DateRange
	ActorID   string
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	ListingID listings.ListingID
	GuestID   string
	HostID    listings.HostID
	From      Status
	ActorID   string
	Role      Role
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	ListingID listings.ListingID
	ActorID   string
	Role      Role
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

func transitionEvent(b *Booking, from Status, actor Actor, reason string, at time.Time) events.DomainEvent {
	switch b.Status {
	case StatusConfirmed:
		return BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, HostID: b.HostID, Range: b.Range, ActorID: actor.ID, At: at}
	case StatusCancelled:
		return BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, HostID: b.HostID, From: from, ActorID: actor.ID, Role: actor.Role, Reason: reason, At: at}
	case StatusCompleted:
		return BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, ActorID: actor.ID, Role: actor.Role, At: at}
	}
	return nil
}
