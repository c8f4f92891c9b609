package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// ErrListingLocked is returned when another transaction holds the listing lock.
var ErrListingLocked = apperr.New(apperr.KindConflict, "mongo: listing locked by a concurrent transaction")

// NewFactory builds a factory with the default repositories.
func NewFactory(db *mongo.Database) Factory {
	return Factory{DB: db, ListingsRepo: NewListingRepository(db), BookingRepo: NewBookingRepository(db)}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, mapError("mongo.start_session", err, domainbooking.ErrConcurrentUpdate)
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, mapError("mongo.start_transaction", err, domainbooking.ErrConcurrentUpdate)
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		readOnly: opts.ReadOnly,
		listings: f.ListingsRepo,
		booking:  f.BookingRepo,
	}, nil
}

type Unit struct {
	db       *mongo.Database
	session  mongo.Session
	readOnly bool

	listings domainlistings.Repository
	booking  domainbooking.Repository
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.booking
}

// LockListing writes the listing's lock document inside the transaction. A
// second transaction touching the same document fails with a write conflict,
// which surfaces as a conflict error instead of blocking.
func (u *Unit) LockListing(ctx context.Context, id domainlistings.ListingID) error {
	sessCtx := mongo.NewSessionContext(ctx, u.session)
	_, err := u.db.Collection(locksCollection).UpdateOne(sessCtx,
		bson.M{"_id": string(id)},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return mapError("mongo.lock_listing", err, ErrListingLocked)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return mapError("mongo.abort", u.session.AbortTransaction(ctx), domainbooking.ErrConcurrentUpdate)
	}
	return mapError("mongo.commit", u.session.CommitTransaction(ctx), domainbooking.ErrConcurrentUpdate)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UnitOfWork      = (*Unit)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
