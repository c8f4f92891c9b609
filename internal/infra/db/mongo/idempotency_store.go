package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/middleware"
	"staybook/internal/domain/shared/apperr"
)

type IdempotencyStore struct {
	col *mongo.Collection
}

// NewIdempotencyStore creates the collection indexes; records expire after ttl.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection("app_idempotency")
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, apperr.Storage("idempotency.indexes", err)
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, apperr.Storage("idempotency.get", err)
	}
	return doc.toRecord(), true, nil
}

// Save keeps the first outcome stored for a key.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	insert := bson.M{
		"payload":     rec.Payload,
		"error":       rec.Error,
		"error_kind":  rec.ErrorKind,
		"occurred_at": rec.OccurredAt,
		"created_at":  time.Now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, rec.Key, bson.M{"$setOnInsert": insert}, options.Update().SetUpsert(true))
	return apperr.Storage("idempotency.save", err)
}

type idempotencyDocument struct {
	ID         string    `bson:"_id"`
	Payload    []byte    `bson:"payload"`
	Error      string    `bson:"error"`
	ErrorKind  string    `bson:"error_kind"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: d.ID, Payload: d.Payload, Error: d.Error, ErrorKind: d.ErrorKind, OccurredAt: d.OccurredAt}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
