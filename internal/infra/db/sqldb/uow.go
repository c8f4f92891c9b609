package sqldb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
)

var ErrUnitOfWorkNotConfigured = errors.New("sqldb: unit of work factory missing database")

// Factory starts GORM transactions behind the UnitOfWork interface.
type Factory struct {
	DB *gorm.DB

	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
}

func NewFactory(db *gorm.DB) Factory {
	return Factory{DB: db, ListingsRepo: NewListingRepository(db), BookingRepo: NewBookingRepository(db)}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx := f.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperr.Storage("sqldb.begin", tx.Error)
	}
	return &Unit{tx: tx, readOnly: opts.ReadOnly, listings: f.ListingsRepo, booking: f.BookingRepo}, nil
}

type Unit struct {
	tx       *gorm.DB
	readOnly bool
	done     bool

	listings domainlistings.Repository
	booking  domainbooking.Repository
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) Bookings() domainbooking.Repository { return u.booking }

// LockListing bumps the listing's lock_seq column, taking the row lock until
// the transaction ends. Concurrent writers on the same listing queue behind it.
func (u *Unit) LockListing(ctx context.Context, id domainlistings.ListingID) error {
	res := u.tx.WithContext(ctx).Model(&listingModel{}).
		Where("id = ?", string(id)).
		UpdateColumn("lock_seq", gorm.Expr("lock_seq + ?", 1))
	if res.Error != nil {
		return mapError("sqldb.lock_listing", res.Error, domainbooking.ErrConcurrentUpdate)
	}
	if res.RowsAffected == 0 {
		return domainlistings.ErrListingNotFound
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if u.readOnly {
		return apperr.Storage("sqldb.rollback", u.tx.Rollback().Error)
	}
	return mapError("sqldb.commit", u.tx.Commit().Error, domainbooking.ErrConcurrentUpdate)
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, u.tx)
}

var (
	_ uow.UnitOfWork      = (*Unit)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
