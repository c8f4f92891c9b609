package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/domain/shared/apperr"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Store is the Mongo outbox. Add joins the session transaction carried by
// ctx, so records commit together with the aggregates that raised them.
type Store struct {
	col *mongo.Collection
}

func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	col := db.Collection("app_outbox")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, apperr.Storage("outbox.indexes", err)
	}
	return &Store{col: col}, nil
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return apperr.Storage("outbox.add", err)
	}
	return nil
}

func (s *Store) Flush(context.Context) error {
	return nil
}

type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	CreatedAt   time.Time         `bson:"created_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      time.Time         `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

func (s *Store) Claim(ctx context.Context, workerID string) (*appoutbox.PendingRecord, error) {
	now := time.Now().UTC()
	filter := bson.M{"state": bson.M{"$in": []string{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Storage("outbox.claim", err)
	}
	return &appoutbox.PendingRecord{
		EventRecord: appoutbox.EventRecord{
			ID:         doc.ID,
			Name:       doc.Name,
			Payload:    doc.Payload,
			OccurredAt: doc.OccurredAt,
			Aggregate:  doc.Aggregate,
			Headers:    doc.Headers,
		},
		Attempts: doc.Attempts,
	}, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": time.Now().UTC()}})
	return apperr.Storage("outbox.mark_sent", err)
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           stateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return apperr.Storage("outbox.mark_failed", err)
}

var (
	_ appoutbox.Outbox = (*Store)(nil)
	_ appoutbox.Source = (*Store)(nil)
)
