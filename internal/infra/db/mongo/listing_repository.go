package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, lookupError("listings.by_id", err, domainlistings.ErrListingNotFound, domainlistings.ErrConcurrentUpdate)
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return mapError("listings.save", err, domainlistings.ErrConcurrentUpdate)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainlistings.ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.HostID) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"owner": string(owner)}, opts)
	if err != nil {
		return nil, mapError("listings.list_by_owner", err, domainlistings.ErrConcurrentUpdate)
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError("listings.list_by_owner", err, domainlistings.ErrConcurrentUpdate)
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type listingDocument struct {
	ID            string `bson:"_id"`
	Owner         string `bson:"owner"`
	Title         string `bson:"title"`
	Location      string `bson:"location"`
	PricePerNight int64  `bson:"price_per_night"`
	Status        string `bson:"status"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	Version       int64  `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:            string(l.ID),
		Owner:         string(l.Owner),
		Title:         l.Title,
		Location:      l.Location,
		PricePerNight: l.PricePerNight.Amount,
		Status:        string(l.Status),
		CreatedAt:     toMillis(l.CreatedAt),
		UpdatedAt:     toMillis(l.UpdatedAt),
		Version:       l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:            domainlistings.ListingID(d.ID),
		Owner:         domainlistings.HostID(d.Owner),
		Title:         d.Title,
		Location:      d.Location,
		PricePerNight: money.Money{Amount: d.PricePerNight},
		Status:        domainlistings.Status(d.Status),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
