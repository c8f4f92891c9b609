package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/shared/apperr"
)

const (
	listingsCollection = "agg_listing"
	bookingsCollection = "agg_booking"
	locksCollection    = "listing_locks"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the lookup indexes the repositories rely on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	if _, err := c.DB.Collection(listingsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return apperr.Storage("mongo.indexes.listings", err)
	}
	_, err := c.DB.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "range.check_in", Value: 1}}},
		{Keys: bson.D{{Key: "guest_id", Value: 1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "range.check_out", Value: 1}}},
	})
	return apperr.Storage("mongo.indexes.bookings", err)
}

const (
	writeConflictCode = 112
	transientTxnLabel = "TransientTransactionError"
)

// mapError classifies driver errors: duplicate keys and write conflicts are
// lost races, everything else is a storage failure.
func mapError(op string, err error, conflict error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return conflict
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(writeConflictCode) || se.HasErrorLabel(transientTxnLabel)) {
		return conflict
	}
	return apperr.Storage(op, err)
}

// lookupError maps a FindOne failure, turning a missing document into notFound.
func lookupError(op string, err error, notFound, conflict error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return mapError(op, err, conflict)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
