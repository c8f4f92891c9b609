package uow

import (
	"context"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository

	// LockListing serializes booking writes on one listing until Commit or
	// Rollback. A lock lost to a concurrent unit surfaces as a conflict error.
	LockListing(ctx context.Context, id domainlistings.ListingID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state (sessions,
// transactions) which repositories pick up from the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Prepare injects driver state and the unit itself into ctx.
func Prepare(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
