package engine

import (
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	dashboardapp "staybook/internal/app/handlers/dashboard"
	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
)

// Deps are the ports a storage backend provides plus tuning knobs.
// Cache is optional; without it dashboards are always computed.
type Deps struct {
	UoWFactory   uow.UoWFactory
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Idempotency  middleware.IdempotencyStore
	Cache        middleware.QueryCache
	CacheTTL     time.Duration
	Cancellation policies.CancellationPolicy

	UpcomingLimit  int
	ListingPreview int

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Engine exposes the booking engine through its two buses.
type Engine struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// New registers every handler and wraps the buses in the middleware chain:
// validation, actor check, cache invalidation, idempotency, transaction and
// outbox flush for commands; validation, actor check and caching for queries.
func New(d Deps) *Engine {
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	if d.Cancellation == nil {
		d.Cancellation = policies.AllowAll{}
	}

	commandBus := commands.NewInMemoryBus()
	listingCommands := &listingapp.CommandHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     d.Logger,
		Now:        d.Now,
		NewID:      d.NewID,
	}
	listingCommands.Register(commandBus)
	bookingapp.RegisterCommands(commandBus,
		&bookingapp.CreateBookingHandler{
			UoWFactory: d.UoWFactory,
			Outbox:     d.Outbox,
			Encoder:    d.Encoder,
			Logger:     d.Logger,
			Now:        d.Now,
			NewID:      d.NewID,
		},
		&bookingapp.TransitionBookingHandler{
			UoWFactory:   d.UoWFactory,
			Outbox:       d.Outbox,
			Encoder:      d.Encoder,
			Cancellation: d.Cancellation,
			Logger:       d.Logger,
			Now:          d.Now,
		},
		&bookingapp.CompleteDueHandler{
			UoWFactory: d.UoWFactory,
			Outbox:     d.Outbox,
			Encoder:    d.Encoder,
			Logger:     d.Logger,
			Now:        d.Now,
		},
	)

	queryBus := queries.NewInMemoryBus()
	(&listingapp.QueryHandler{UoWFactory: d.UoWFactory}).Register(queryBus)
	(&bookingapp.QueryHandler{UoWFactory: d.UoWFactory}).Register(queryBus)
	availabilityapp.Register(queryBus,
		&availabilityapp.CheckAvailabilityHandler{UoWFactory: d.UoWFactory},
		&availabilityapp.BlockedDatesHandler{UoWFactory: d.UoWFactory},
	)
	(&dashboardapp.Handler{
		UoWFactory:     d.UoWFactory,
		UpcomingLimit:  d.UpcomingLimit,
		ListingPreview: d.ListingPreview,
		Now:            d.Now,
	}).Register(queryBus)

	validator := middleware.NewStructValidator()
	commandMW := []middleware.CommandMiddleware{
		middleware.Validation(validator),
		middleware.Authorization(middleware.ActorRequired{}),
	}
	queryMW := []middleware.QueryMiddleware{
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(middleware.ActorRequired{}),
	}
	if d.Cache != nil {
		commandMW = append(commandMW, middleware.CacheInvalidation(d.Cache))
		queryMW = append(queryMW, middleware.QueryCaching(d.Cache, nil, d.CacheTTL))
	}
	if d.Idempotency != nil {
		commandMW = append(commandMW, middleware.Idempotency(d.Idempotency, nil))
	}
	commandMW = append(commandMW, middleware.Transaction(d.UoWFactory, nil))
	if d.Outbox != nil {
		commandMW = append(commandMW, middleware.OutboxFlush(d.Outbox))
	}

	return &Engine{
		Commands: middleware.ChainCommands(commandBus, commandMW...),
		Queries:  middleware.ChainQueries(queryBus, queryMW...),
	}
}
