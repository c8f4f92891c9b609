package sqldb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var m bookingModel
	err := dbFrom(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainbooking.ErrBookingNotFound
	}
	if err != nil {
		return nil, mapError("booking.by_id", err, domainbooking.ErrConcurrentUpdate)
	}
	agg, err := m.toAggregate()
	if err != nil {
		return nil, apperr.Storage("booking.decode", err)
	}
	return agg, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	db := dbFrom(ctx, r.db)
	m, err := newBookingModel(b)
	if err != nil {
		return apperr.Storage("booking.encode", err)
	}
	m.Version = b.Version + 1
	if b.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			return mapError("booking.insert", err, domainbooking.ErrConcurrentUpdate)
		}
		b.Version = m.Version
		return nil
	}
	res := db.Model(&bookingModel{}).
		Where("id = ? AND version = ?", m.ID, b.Version).
		Updates(map[string]any{
			"status":      m.Status,
			"transitions": m.Transitions,
			"updated_at":  m.UpdatedAtMs,
			"version":     m.Version,
		})
	if res.Error != nil {
		return mapError("booking.update", res.Error, domainbooking.ErrConcurrentUpdate)
	}
	if res.RowsAffected == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = m.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, "booking.list_by_guest", dbFrom(ctx, r.db).Where("guest_id = ?", guestID))
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, "booking.list_by_host", dbFrom(ctx, r.db).Where("host_id = ?", string(hostID)))
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	q := dbFrom(ctx, r.db).Where("listing_id = ?", string(listingID))
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}
	return r.find(ctx, "booking.list_by_listing", q)
}

func (r *BookingRepository) ListDue(ctx context.Context, asOf time.Time) ([]*domainbooking.Booking, error) {
	q := dbFrom(ctx, r.db).
		Where("status = ?", string(domainbooking.StatusConfirmed)).
		Where("check_out <= ?", toMillis(asOf))
	return r.find(ctx, "booking.list_due", q)
}

func (r *BookingRepository) find(_ context.Context, op string, q *gorm.DB) ([]*domainbooking.Booking, error) {
	var rows []bookingModel
	if err := q.Order("check_in ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(op, err, domainbooking.ErrConcurrentUpdate)
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, m := range rows {
		agg, err := m.toAggregate()
		if err != nil {
			return nil, apperr.Storage(op, err)
		}
		out = append(out, agg)
	}
	return out, nil
}

func statusStrings(statuses []domainbooking.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
