package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrIDRequired        = apperr.New(apperr.KindValidation, "booking: id is required")
	ErrGuestRequired     = apperr.New(apperr.KindValidation, "booking: guest id is required")
	ErrGuestNameRequired = apperr.New(apperr.KindValidation, "booking: guest name is required")
	ErrListingRequired   = apperr.New(apperr.KindValidation, "booking: listing is required")
	ErrStayTooLong       = apperr.New(apperr.KindValidation, "booking: stay exceeds the maximum number of nights")
	ErrTotalOutOfRange   = apperr.New(apperr.KindValidation, "booking: total price out of range")
	ErrBookingNotFound   = apperr.New(apperr.KindNotFound, "booking: not found")
	ErrNotParty          = apperr.New(apperr.KindNotFound, "booking: user is neither host nor guest")
	ErrOverlap           = apperr.New(apperr.KindConflict, "booking: dates overlap an existing booking")
	ErrConcurrentUpdate  = apperr.New(apperr.KindConflict, "booking: concurrent update detected")
)

// MaxNights caps the length of a single stay.
const MaxNights = 365

type BookingID string

// Booking is a reserved stay. HostID and NightlyPrice are snapshots taken from
// the listing at creation and are never re-derived afterwards.
type Booking struct {
	ID           BookingID
	ListingID    listings.ListingID
	GuestID      string
	HostID       listings.HostID
	GuestName    string
	Range        daterange.DateRange
	NightlyPrice money.Money
	TotalPrice   money.Money
	Status       Status
	Transitions  []Transition
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// Transition is one audit entry of the booking's status history.
type Transition struct {
	From    Status
	To      Status
	ActorID string
	Role    Role
	Reason  string
	At      time.Time
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Save inserts a booking with Version 0 and updates otherwise; a stale
	// Version yields ErrConcurrentUpdate. Save increments Version on success.
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID listings.HostID) ([]*Booking, error)
	// ListByListing returns bookings of a listing, restricted to statuses when given.
	ListByListing(ctx context.Context, listingID listings.ListingID, statuses ...Status) ([]*Booking, error)
	// ListDue returns confirmed bookings whose check-out is on or before asOf.
	ListDue(ctx context.Context, asOf time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	Listing   *listings.Listing
	GuestID   string
	GuestName string
	CheckIn   time.Time
	CheckOut  time.Time
	Now       time.Time
}

// NewBooking validates the request against the listing and prices the stay.
// Availability is checked by the caller inside the same unit of work.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if params.Listing == nil {
		return nil, ErrListingRequired
	}
	guestID := strings.TrimSpace(params.GuestID)
	if guestID == "" {
		return nil, ErrGuestRequired
	}
	guestName := strings.TrimSpace(params.GuestName)
	if guestName == "" {
		return nil, ErrGuestNameRequired
	}
	dr, err := daterange.New(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, err
	}
	if !params.Listing.Bookable() {
		return nil, listings.ErrNotBookable
	}
	if dr.Nights() > MaxNights {
		return nil, ErrStayTooLong
	}
	nightly := params.Listing.PricePerNight
	total, err := nightly.Multiply(int64(dr.Nights()))
	if err != nil {
		return nil, ErrTotalOutOfRange
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:           params.ID,
		ListingID:    params.Listing.ID,
		GuestID:      guestID,
		HostID:       params.Listing.Owner,
		GuestName:    guestName,
		Range:        dr,
		NightlyPrice: nightly,
		TotalPrice:   total,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	b.Record(BookingCreated{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Range:     b.Range,
		Total:     b.TotalPrice,
		At:        now,
	})
	return b, nil
}

func (b *Booking) Nights() int {
	return b.Range.Nights()
}

// ActorFor resolves the role a user plays on this booking. A user who is both
// host and guest acts as host, whose permissions are a superset.
func (b *Booking) ActorFor(userID string) (Actor, error) {
	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		return Actor{}, ErrNotParty
	case userID == string(b.HostID):
		return Actor{ID: userID, Role: RoleHost}, nil
	case userID == b.GuestID:
		return Actor{ID: userID, Role: RoleGuest}, nil
	}
	return Actor{}, ErrNotParty
}

// Transition moves the booking to status to. Requesting the current status is
// a no-op. It reports whether the status actually changed.
func (b *Booking) Transition(to Status, actor Actor, reason string, now time.Time) (bool, error) {
	if _, err := ParseStatus(string(to)); err != nil {
		return false, err
	}
	if b.Status == to {
		return false, nil
	}
	roles, ok := allowedRoles(b.Status, to)
	if !ok {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	if !hasRole(roles, actor.Role) {
		return false, fmt.Errorf("%w: %s cannot move %s -> %s", ErrRoleNotAllowed, actor.Role, b.Status, to)
	}
	now = now.UTC()
	if to == StatusCompleted && actor.Role == RoleSystem && now.Before(b.Range.CheckOut) {
		return false, ErrNotDue
	}
	from := b.Status
	b.Status = to
	b.UpdatedAt = now
	b.Transitions = append(b.Transitions, Transition{From: from, To: to, ActorID: actor.ID, Role: actor.Role, Reason: reason, At: now})
	b.Record(transitionEvent(b, from, actor, reason, now))
	return true, nil
}

func (b *Booking) Confirm(actor Actor, now time.Time) (bool, error) {
	return b.Transition(StatusConfirmed, actor, "", now)
}

func (b *Booking) Cancel(actor Actor, reason string, now time.Time) (bool, error) {
	return b.Transition(StatusCancelled, actor, reason, now)
}

func (b *Booking) Complete(actor Actor, now time.Time) (bool, error) {
	return b.Transition(StatusCompleted, actor, "", now)
}

// DueForCompletion reports whether the system may complete the booking at now.
func (b *Booking) DueForCompletion(now time.Time) bool {
	return b.Status == StatusConfirmed && !now.UTC().Before(b.Range.CheckOut)
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
