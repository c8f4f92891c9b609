package booking

import (
	"context"
	"sort"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

const (
	getBookingKey        = "booking.get"
	listGuestBookingsKey = "booking.list_guest"
	listHostBookingsKey  = "booking.list_host"
)

type GetBookingQuery struct {
	ActorID   string `json:"actor_id" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
}

func (q GetBookingQuery) Key() string        { return getBookingKey }
func (q GetBookingQuery) ActingUser() string { return q.ActorID }

type ListGuestBookingsQuery struct {
	GuestID string `json:"guest_id" validate:"required"`
}

func (q ListGuestBookingsQuery) Key() string        { return listGuestBookingsKey }
func (q ListGuestBookingsQuery) ActingUser() string { return q.GuestID }

type ListHostBookingsQuery struct {
	HostID string `json:"host_id" validate:"required"`
	// Status optionally restricts the result to one booking status.
	Status string `json:"status,omitempty"`
}

func (q ListHostBookingsQuery) Key() string        { return listHostBookingsKey }
func (q ListHostBookingsQuery) ActingUser() string { return q.HostID }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Get(ctx context.Context, q GetBookingQuery) (*dto.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	if _, err := booking.ActorFor(q.ActorID); err != nil {
		return nil, domainbooking.ErrBookingNotFound
	}
	result := dto.MapBooking(booking)
	return &result, nil
}

func (h *QueryHandler) ListGuest(ctx context.Context, q ListGuestBookingsQuery) (*dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Bookings().ListByGuest(execCtx, q.GuestID)
	if err != nil {
		return nil, err
	}
	sortByCheckIn(items)
	return &dto.BookingCollection{Items: dto.MapBookings(items)}, nil
}

func (h *QueryHandler) ListHost(ctx context.Context, q ListHostBookingsQuery) (*dto.BookingCollection, error) {
	var filter domainbooking.Status
	if q.Status != "" {
		status, err := domainbooking.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter = status
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Bookings().ListByHost(execCtx, domainlistings.HostID(q.HostID))
	if err != nil {
		return nil, err
	}
	if filter != "" {
		kept := items[:0]
		for _, b := range items {
			if b.Status == filter {
				kept = append(kept, b)
			}
		}
		items = kept
	}
	sortByCheckIn(items)
	return &dto.BookingCollection{Items: dto.MapBookings(items)}, nil
}

func sortByCheckIn(items []*domainbooking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Range.CheckIn.Equal(items[j].Range.CheckIn) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Range.CheckIn.Before(items[j].Range.CheckIn)
	})
}

func (h *QueryHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetBookingQuery, *dto.Booking](bus, getBookingKey, queries.HandlerFunc[GetBookingQuery, *dto.Booking](h.Get))
	queries.RegisterHandler[ListGuestBookingsQuery, *dto.BookingCollection](bus, listGuestBookingsKey, queries.HandlerFunc[ListGuestBookingsQuery, *dto.BookingCollection](h.ListGuest))
	queries.RegisterHandler[ListHostBookingsQuery, *dto.BookingCollection](bus, listHostBookingsKey, queries.HandlerFunc[ListHostBookingsQuery, *dto.BookingCollection](h.ListHost))
}
