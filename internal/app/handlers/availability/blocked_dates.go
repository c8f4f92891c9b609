package availability

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
)

const blockedDatesKey = "availability.blocked"

// BlockedDatesQuery returns the merged ranges held by live bookings, clipped
// to [From, To) when both bounds are set.
type BlockedDatesQuery struct {
	ListingID string    `json:"listing_id" validate:"required"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

func (q BlockedDatesQuery) Key() string { return blockedDatesKey }

type BlockedDatesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *BlockedDatesHandler) Handle(ctx context.Context, q BlockedDatesQuery) (*dto.BlockedDates, error) {
	var window *daterange.DateRange
	if !q.From.IsZero() || !q.To.IsZero() {
		w, err := daterange.New(q.From, q.To)
		if err != nil {
			return nil, err
		}
		window = &w
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := unit.Listings().ByID(execCtx, listingID); err != nil {
		return nil, err
	}
	calendar, err := domainavailability.Checker{Bookings: unit.Bookings()}.Calendar(execCtx, listingID)
	if err != nil {
		return nil, err
	}
	result := dto.MapBlockedDates(calendar, window)
	return &result, nil
}

var _ queries.Handler[BlockedDatesQuery, *dto.BlockedDates] = (*BlockedDatesHandler)(nil)
