package sqldb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainlistings "staybook/internal/domain/listings"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var m listingModel
	err := dbFrom(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainlistings.ErrListingNotFound
	}
	if err != nil {
		return nil, mapError("listings.by_id", err, domainlistings.ErrConcurrentUpdate)
	}
	return m.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	db := dbFrom(ctx, r.db)
	m := newListingModel(l)
	m.Version = l.Version + 1
	if l.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			return mapError("listings.insert", err, domainlistings.ErrConcurrentUpdate)
		}
		l.Version = m.Version
		return nil
	}
	res := db.Model(&listingModel{}).
		Where("id = ? AND version = ?", m.ID, l.Version).
		Updates(map[string]any{
			"title":           m.Title,
			"location":        m.Location,
			"price_per_night": m.PricePerNight,
			"status":          m.Status,
			"updated_at":      m.UpdatedAtMs,
			"version":         m.Version,
		})
	if res.Error != nil {
		return mapError("listings.update", res.Error, domainlistings.ErrConcurrentUpdate)
	}
	if res.RowsAffected == 0 {
		return domainlistings.ErrConcurrentUpdate
	}
	l.Version = m.Version
	return nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.HostID) ([]*domainlistings.Listing, error) {
	var rows []listingModel
	err := dbFrom(ctx, r.db).
		Where("owner = ?", string(owner)).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError("listings.list_by_owner", err, domainlistings.ErrConcurrentUpdate)
	}
	out := make([]*domainlistings.Listing, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toAggregate())
	}
	return out, nil
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
