package listings

import (
	"context"
	"strings"
	"time"

	"staybook/internal/domain/shared/apperr"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrIDRequired       = apperr.New(apperr.KindValidation, "listings: id is required")
	ErrOwnerRequired    = apperr.New(apperr.KindValidation, "listings: owner is required")
	ErrTitleRequired    = apperr.New(apperr.KindValidation, "listings: title is required")
	ErrLocationRequired = apperr.New(apperr.KindValidation, "listings: location is required")
	ErrNegativePrice    = apperr.New(apperr.KindValidation, "listings: price per night must be non-negative")
	ErrPriceTooHigh     = apperr.New(apperr.KindValidation, "listings: price per night exceeds the maximum")
	ErrInvalidStatus    = apperr.New(apperr.KindValidation, "listings: unknown status")
	ErrNotBookable      = apperr.New(apperr.KindValidation, "listings: listing is not accepting bookings")
	ErrListingNotFound  = apperr.New(apperr.KindNotFound, "listings: not found")
	ErrNotOwner         = apperr.New(apperr.KindNotFound, "listings: not owned by user")
	ErrConcurrentUpdate = apperr.New(apperr.KindConflict, "listings: concurrent update detected")
)

// MaxPricePerNight is the largest nightly rate in minor units (ten digits).
const MaxPricePerNight int64 = 9_999_999_999

type ListingID string

// HostID is the opaque identifier handed over by the identity collaborator.
type HostID string

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

// Statuses lists every listing status in display order.
var Statuses = []Status{StatusActive, StatusInactive, StatusPending}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return s, nil
	}
	return "", ErrInvalidStatus
}

type Listing struct {
	ID            ListingID
	Owner         HostID
	Title         string
	Location      string
	PricePerNight money.Money
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	// Save inserts a listing with Version 0 and updates otherwise; a stale
	// Version yields ErrConcurrentUpdate. Save increments Version on success.
	Save(ctx context.Context, listing *Listing) error
	ListByOwner(ctx context.Context, owner HostID) ([]*Listing, error)
}

type CreateParams struct {
	ID            ListingID
	Owner         HostID
	Title         string
	Location      string
	PricePerNight int64
	Status        Status
	Now           time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	location := strings.TrimSpace(params.Location)
	if location == "" {
		return nil, ErrLocationRequired
	}
	price, err := nightlyPrice(params.PricePerNight)
	if err != nil {
		return nil, err
	}
	status := params.Status
	if status == "" {
		status = StatusActive
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:            params.ID,
		Owner:         params.Owner,
		Title:         title,
		Location:      location,
		PricePerNight: price,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	l.Record(ListingCreated{ListingID: l.ID, Owner: l.Owner, Status: l.Status, At: now})
	return l, nil
}

// Bookable reports whether new bookings may be created against the listing.
func (l *Listing) Bookable() bool {
	return l.Status == StatusActive
}

// OwnedBy reports whether user owns the listing.
func (l *Listing) OwnedBy(user HostID) bool {
	return user != "" && l.Owner == user
}

// SetStatus is idempotent: setting the current status records nothing.
// Deactivating never touches existing bookings; it only blocks new ones.
func (l *Listing) SetStatus(status Status, now time.Time) (bool, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return false, err
	}
	if l.Status == status {
		return false, nil
	}
	from := l.Status
	l.Status = status
	l.UpdatedAt = now.UTC()
	l.Record(ListingStatusChanged{ListingID: l.ID, From: from, To: status, At: l.UpdatedAt})
	return true, nil
}

// ChangePrice updates the nightly rate for future bookings only.
func (l *Listing) ChangePrice(amount int64, now time.Time) (bool, error) {
	price, err := nightlyPrice(amount)
	if err != nil {
		return false, err
	}
	if l.PricePerNight == price {
		return false, nil
	}
	previous := l.PricePerNight
	l.PricePerNight = price
	l.UpdatedAt = now.UTC()
	l.Record(ListingPriceChanged{ListingID: l.ID, Previous: previous, Current: price, At: l.UpdatedAt})
	return true, nil
}

func nightlyPrice(amount int64) (money.Money, error) {
	if amount > MaxPricePerNight {
		return money.Money{}, ErrPriceTooHigh
	}
	price, err := money.FromMinor(amount)
	if err != nil {
		return money.Money{}, ErrNegativePrice
	}
	return price, nil
}
