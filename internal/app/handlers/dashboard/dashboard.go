package dashboard

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/middleware"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/metrics"
)

const (
	hostDashboardKey  = "dashboard.host"
	guestDashboardKey = "dashboard.guest"
)

// HostDashboardQuery computes the host dashboard as of AsOf, or now when zero.
type HostDashboardQuery struct {
	UserID string    `json:"user_id" validate:"required"`
	AsOf   time.Time `json:"as_of"`
}

func (q HostDashboardQuery) Key() string          { return hostDashboardKey }
func (q HostDashboardQuery) ActingUser() string   { return q.UserID }
func (q HostDashboardQuery) ResultPrototype() any { return &dto.HostDashboard{} }

// CacheKey varies with the day when AsOf is unset so month boundaries are
// never served stale.
func (q HostDashboardQuery) CacheKey() string { return q.UserID + ":" + cacheDay(q.AsOf) }

type GuestDashboardQuery struct {
	UserID string    `json:"user_id" validate:"required"`
	AsOf   time.Time `json:"as_of"`
}

func (q GuestDashboardQuery) Key() string          { return guestDashboardKey }
func (q GuestDashboardQuery) ActingUser() string   { return q.UserID }
func (q GuestDashboardQuery) ResultPrototype() any { return &dto.GuestDashboard{} }
func (q GuestDashboardQuery) CacheKey() string     { return q.UserID + ":" + cacheDay(q.AsOf) }

type Handler struct {
	UoWFactory     uow.UoWFactory
	UpcomingLimit  int
	ListingPreview int
	Now            func() time.Time
}

func (h *Handler) Host(ctx context.Context, q HostDashboardQuery) (*dto.HostDashboard, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	host := domainlistings.HostID(q.UserID)
	owned, err := unit.Listings().ListByOwner(execCtx, host)
	if err != nil {
		return nil, err
	}
	hosted, err := unit.Bookings().ListByHost(execCtx, host)
	if err != nil {
		return nil, err
	}
	snapshot := metrics.ComputeHost(metrics.HostInput{
		Host:           host,
		Listings:       owned,
		Bookings:       hosted,
		AsOf:           h.asOf(q.AsOf),
		UpcomingLimit:  h.UpcomingLimit,
		ListingPreview: h.ListingPreview,
	})
	result := dto.MapHostDashboard(snapshot)
	return &result, nil
}

func (h *Handler) Guest(ctx context.Context, q GuestDashboardQuery) (*dto.GuestDashboard, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	trips, err := unit.Bookings().ListByGuest(execCtx, q.UserID)
	if err != nil {
		return nil, err
	}
	snapshot := metrics.ComputeGuest(metrics.GuestInput{
		Guest:         q.UserID,
		Bookings:      trips,
		AsOf:          h.asOf(q.AsOf),
		UpcomingLimit: h.UpcomingLimit,
	})
	result := dto.MapGuestDashboard(snapshot)
	return &result, nil
}

func (h *Handler) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return support.Clock(h.Now)
	}
	return t.UTC()
}

func (h *Handler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[HostDashboardQuery, *dto.HostDashboard](bus, hostDashboardKey, queries.HandlerFunc[HostDashboardQuery, *dto.HostDashboard](h.Host))
	queries.RegisterHandler[GuestDashboardQuery, *dto.GuestDashboard](bus, guestDashboardKey, queries.HandlerFunc[GuestDashboardQuery, *dto.GuestDashboard](h.Guest))
}

func cacheDay(t time.Time) string {
	if t.IsZero() {
		return time.Now().UTC().Format(time.DateOnly)
	}
	return t.UTC().Format(time.RFC3339)
}

var (
	_ middleware.CacheableQuery = HostDashboardQuery{}
	_ middleware.CacheableQuery = GuestDashboardQuery{}
)
