package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, lookupError("booking.by_id", err, domainbooking.ErrBookingNotFound, domainbooking.ErrConcurrentUpdate)
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return mapError("booking.save", err, domainbooking.ErrConcurrentUpdate)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, "booking.list_by_guest", bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, "booking.list_by_host", bson.M{"host_id": string(hostID)})
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{"listing_id": string(listingID)}
	if len(statuses) > 0 {
		in := make([]string, 0, len(statuses))
		for _, s := range statuses {
			in = append(in, string(s))
		}
		filter["status"] = bson.M{"$in": in}
	}
	return r.find(ctx, "booking.list_by_listing", filter)
}

func (r *BookingRepository) ListDue(ctx context.Context, asOf time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":          string(domainbooking.StatusConfirmed),
		"range.check_out": bson.M{"$lte": toMillis(asOf)},
	}
	return r.find(ctx, "booking.list_due", filter)
}

func (r *BookingRepository) find(ctx context.Context, op string, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError(op, err, domainbooking.ErrConcurrentUpdate)
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(op, err, domainbooking.ErrConcurrentUpdate)
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID           string               `bson:"_id"`
	ListingID    string               `bson:"listing_id"`
	GuestID      string               `bson:"guest_id"`
	HostID       string               `bson:"host_id"`
	GuestName    string               `bson:"guest_name"`
	Range        rangeDocument        `bson:"range"`
	NightlyPrice int64                `bson:"nightly_price"`
	TotalPrice   int64                `bson:"total_price"`
	Status       string               `bson:"status"`
	Transitions  []transitionDocument `bson:"transitions"`
	CreatedAt    int64                `bson:"created_at"`
	UpdatedAt    int64                `bson:"updated_at"`
	Version      int64                `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type transitionDocument struct {
	From    string `bson:"from"`
	To      string `bson:"to"`
	ActorID string `bson:"actor_id"`
	Role    string `bson:"role"`
	Reason  string `bson:"reason,omitempty"`
	At      int64  `bson:"at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		GuestID:      b.GuestID,
		HostID:       string(b.HostID),
		GuestName:    b.GuestName,
		Range:        rangeDocument{CheckIn: toMillis(b.Range.CheckIn), CheckOut: toMillis(b.Range.CheckOut)},
		NightlyPrice: b.NightlyPrice.Amount,
		TotalPrice:   b.TotalPrice.Amount,
		Status:       string(b.Status),
		Transitions:  make([]transitionDocument, 0, len(b.Transitions)),
		CreatedAt:    toMillis(b.CreatedAt),
		UpdatedAt:    toMillis(b.UpdatedAt),
		Version:      b.Version,
	}
	for _, t := range b.Transitions {
		doc.Transitions = append(doc.Transitions, transitionDocument{
			From:    string(t.From),
			To:      string(t.To),
			ActorID: t.ActorID,
			Role:    string(t.Role),
			Reason:  t.Reason,
			At:      toMillis(t.At),
		})
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	agg := &domainbooking.Booking{
		ID:           domainbooking.BookingID(d.ID),
		ListingID:    domainlistings.ListingID(d.ListingID),
		GuestID:      d.GuestID,
		HostID:       domainlistings.HostID(d.HostID),
		GuestName:    d.GuestName,
		Range:        domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		NightlyPrice: money.Money{Amount: d.NightlyPrice},
		TotalPrice:   money.Money{Amount: d.TotalPrice},
		Status:       domainbooking.Status(d.Status),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
	for _, t := range d.Transitions {
		agg.Transitions = append(agg.Transitions, domainbooking.Transition{
			From:    domainbooking.Status(t.From),
			To:      domainbooking.Status(t.To),
			ActorID: t.ActorID,
			Role:    domainbooking.Role(t.Role),
			Reason:  t.Reason,
			At:      timestampToTime(t.At),
		})
	}
	return agg
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
