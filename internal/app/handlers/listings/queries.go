package listings

import (
	"context"
	"sort"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
)

const (
	getListingKey       = "listings.get"
	listHostListingsKey = "listings.list_host"
)

type GetListingQuery struct {
	ID string `json:"id" validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

type ListHostListingsQuery struct {
	Owner string `json:"owner" validate:"required"`
}

func (q ListHostListingsQuery) Key() string        { return listHostListingsKey }
func (q ListHostListingsQuery) ActingUser() string { return q.Owner }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Get(ctx context.Context, q GetListingQuery) (*dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ID))
	if err != nil {
		return nil, err
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *QueryHandler) ListHost(ctx context.Context, q ListHostListingsQuery) (*dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Listings().ListByOwner(execCtx, domainlistings.HostID(q.Owner))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return &dto.ListingCollection{Items: dto.MapListings(items)}, nil
}

func (h *QueryHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetListingQuery, *dto.Listing](bus, getListingKey, queries.HandlerFunc[GetListingQuery, *dto.Listing](h.Get))
	queries.RegisterHandler[ListHostListingsQuery, *dto.ListingCollection](bus, listHostListingsKey, queries.HandlerFunc[ListHostListingsQuery, *dto.ListingCollection](h.ListHost))
}
