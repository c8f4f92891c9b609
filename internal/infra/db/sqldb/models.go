package sqldb

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// Timestamps are stored as unix milliseconds so range predicates compare
// numerically on every driver.

type listingModel struct {
	ID            string `gorm:"column:id;primaryKey;size:64"`
	Owner         string `gorm:"column:owner;size:128;not null;index:idx_listings_owner"`
	Title         string `gorm:"column:title;not null"`
	Location      string `gorm:"column:location;not null"`
	PricePerNight int64  `gorm:"column:price_per_night;not null"`
	Status        string `gorm:"column:status;size:16;not null"`
	CreatedAtMs   int64  `gorm:"column:created_at;not null"`
	UpdatedAtMs   int64  `gorm:"column:updated_at;not null"`
	Version       int64  `gorm:"column:version;not null"`
	LockSeq       int64  `gorm:"column:lock_seq;not null;default:0"`
}

func (listingModel) TableName() string { return "listings" }

func newListingModel(l *domainlistings.Listing) listingModel {
	return listingModel{
		ID:            string(l.ID),
		Owner:         string(l.Owner),
		Title:         l.Title,
		Location:      l.Location,
		PricePerNight: l.PricePerNight.Amount,
		Status:        string(l.Status),
		CreatedAtMs:   toMillis(l.CreatedAt),
		UpdatedAtMs:   toMillis(l.UpdatedAt),
		Version:       l.Version,
	}
}

func (m listingModel) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:            domainlistings.ListingID(m.ID),
		Owner:         domainlistings.HostID(m.Owner),
		Title:         m.Title,
		Location:      m.Location,
		PricePerNight: money.Money{Amount: m.PricePerNight},
		Status:        domainlistings.Status(m.Status),
		CreatedAt:     fromMillis(m.CreatedAtMs),
		UpdatedAt:     fromMillis(m.UpdatedAtMs),
		Version:       m.Version,
	}
}

type bookingModel struct {
	ID           string         `gorm:"column:id;primaryKey;size:64"`
	ListingID    string         `gorm:"column:listing_id;size:64;not null;index:idx_bookings_listing_check_in,priority:1"`
	CheckIn      int64          `gorm:"column:check_in;not null;index:idx_bookings_listing_check_in,priority:2"`
	CheckOut     int64          `gorm:"column:check_out;not null"`
	GuestID      string         `gorm:"column:guest_id;size:128;not null;index:idx_bookings_guest"`
	HostID       string         `gorm:"column:host_id;size:128;not null;index:idx_bookings_host"`
	GuestName    string         `gorm:"column:guest_name;not null"`
	NightlyPrice int64          `gorm:"column:nightly_price;not null"`
	TotalPrice   int64          `gorm:"column:total_price;not null"`
	Status       string         `gorm:"column:status;size:16;not null;index:idx_bookings_status"`
	Transitions  datatypes.JSON `gorm:"column:transitions"`
	CreatedAtMs  int64          `gorm:"column:created_at;not null"`
	UpdatedAtMs  int64          `gorm:"column:updated_at;not null"`
	Version      int64          `gorm:"column:version;not null"`
}

func (bookingModel) TableName() string { return "bookings" }

type transitionJSON struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	Reason  string `json:"reason,omitempty"`
	At      int64  `json:"at"`
}

func newBookingModel(b *domainbooking.Booking) (bookingModel, error) {
	trail := make([]transitionJSON, 0, len(b.Transitions))
	for _, t := range b.Transitions {
		trail = append(trail, transitionJSON{
			From:    string(t.From),
			To:      string(t.To),
			ActorID: t.ActorID,
			Role:    string(t.Role),
			Reason:  t.Reason,
			At:      toMillis(t.At),
		})
	}
	raw, err := json.Marshal(trail)
	if err != nil {
		return bookingModel{}, err
	}
	return bookingModel{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		CheckIn:      toMillis(b.Range.CheckIn),
		CheckOut:     toMillis(b.Range.CheckOut),
		GuestID:      b.GuestID,
		HostID:       string(b.HostID),
		GuestName:    b.GuestName,
		NightlyPrice: b.NightlyPrice.Amount,
		TotalPrice:   b.TotalPrice.Amount,
		Status:       string(b.Status),
		Transitions:  datatypes.JSON(raw),
		CreatedAtMs:  toMillis(b.CreatedAt),
		UpdatedAtMs:  toMillis(b.UpdatedAt),
		Version:      b.Version,
	}, nil
}

func (m bookingModel) toAggregate() (*domainbooking.Booking, error) {
	agg := &domainbooking.Booking{
		ID:           domainbooking.BookingID(m.ID),
		ListingID:    domainlistings.ListingID(m.ListingID),
		GuestID:      m.GuestID,
		HostID:       domainlistings.HostID(m.HostID),
		GuestName:    m.GuestName,
		Range:        domainrange.DateRange{CheckIn: fromMillis(m.CheckIn), CheckOut: fromMillis(m.CheckOut)},
		NightlyPrice: money.Money{Amount: m.NightlyPrice},
		TotalPrice:   money.Money{Amount: m.TotalPrice},
		Status:       domainbooking.Status(m.Status),
		CreatedAt:    fromMillis(m.CreatedAtMs),
		UpdatedAt:    fromMillis(m.UpdatedAtMs),
		Version:      m.Version,
	}
	if len(m.Transitions) > 0 {
		var trail []transitionJSON
		if err := json.Unmarshal(m.Transitions, &trail); err != nil {
			return nil, err
		}
		for _, t := range trail {
			agg.Transitions = append(agg.Transitions, domainbooking.Transition{
				From:    domainbooking.Status(t.From),
				To:      domainbooking.Status(t.To),
				ActorID: t.ActorID,
				Role:    domainbooking.Role(t.Role),
				Reason:  t.Reason,
				At:      fromMillis(t.At),
			})
		}
	}
	return agg, nil
}

type outboxModel struct {
	ID            string         `gorm:"column:id;primaryKey;size:64"`
	Name          string         `gorm:"column:name;not null"`
	Payload       []byte         `gorm:"column:payload"`
	OccurredAtMs  int64          `gorm:"column:occurred_at;not null"`
	Aggregate     string         `gorm:"column:aggregate"`
	Headers       datatypes.JSON `gorm:"column:headers"`
	State         string         `gorm:"column:state;size:16;not null;index:idx_outbox_state_next,priority:1"`
	Attempts      int            `gorm:"column:attempts;not null;default:0"`
	NextAttemptMs int64          `gorm:"column:next_attempt_at;not null;index:idx_outbox_state_next,priority:2"`
	ClaimedBy     string         `gorm:"column:claimed_by"`
	LastError     string         `gorm:"column:last_error"`
	CreatedAtMs   int64          `gorm:"column:created_at;not null"`
}

func (outboxModel) TableName() string { return "app_outbox" }

type idempotencyModel struct {
	Key          string `gorm:"column:idempotency_key;primaryKey;size:255"`
	Payload      []byte `gorm:"column:payload"`
	Error        string `gorm:"column:error"`
	ErrorKind    string `gorm:"column:error_kind;size:32"`
	OccurredAtMs int64  `gorm:"column:occurred_at;not null"`
}

func (idempotencyModel) TableName() string { return "app_idempotency" }

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
