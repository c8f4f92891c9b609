package listings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
)

const (
	createListingKey    = "listings.create"
	setListingStatusKey = "listings.set_status"
	changePriceKey      = "listings.change_price"
)

type CreateListingCommand struct {
	Owner         string `json:"owner" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Location      string `json:"location" validate:"required"`
	PricePerNight int64  `json:"price_per_night" validate:"gte=0"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive pending"`
}

func (c CreateListingCommand) Key() string        { return createListingKey }
func (c CreateListingCommand) ActingUser() string { return c.Owner }

type SetListingStatusCommand struct {
	ActorID   string `json:"actor_id" validate:"required"`
	ListingID string `json:"listing_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

func (c SetListingStatusCommand) Key() string        { return setListingStatusKey }
func (c SetListingStatusCommand) ActingUser() string { return c.ActorID }

type ChangeListingPriceCommand struct {
	ActorID       string `json:"actor_id" validate:"required"`
	ListingID     string `json:"listing_id" validate:"required"`
	PricePerNight int64  `json:"price_per_night" validate:"gte=0"`
}

func (c ChangeListingPriceCommand) Key() string        { return changePriceKey }
func (c ChangeListingPriceCommand) ActingUser() string { return c.ActorID }

// CommandHandler serves every listing write; its methods are registered per
// command key.
type CommandHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (h *CommandHandler) Create(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	unit, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	var status domainlistings.Status
	if cmd.Status != "" {
		if status, err = domainlistings.ParseStatus(cmd.Status); err != nil {
			return nil, err
		}
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:            domainlistings.ListingID(h.newID()),
		Owner:         domainlistings.HostID(cmd.Owner),
		Title:         cmd.Title,
		Location:      cmd.Location,
		PricePerNight: cmd.PricePerNight,
		Status:        status,
		Now:           support.Clock(h.Now),
	})
	if err != nil {
		return nil, err
	}
	if err := h.save(unit, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner", listing.Owner, "status", listing.Status)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandler) SetStatus(ctx context.Context, cmd SetListingStatusCommand) (*dto.Listing, error) {
	status, err := domainlistings.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	unit, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	listing, err := loadOwned(unit.Ctx, unit.Listings(), cmd.ListingID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	changed, err := listing.SetStatus(status, support.Clock(h.Now))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := h.save(unit, listing); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("listing status changed", "listing_id", listing.ID, "status", listing.Status)
		}
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandler) ChangePrice(ctx context.Context, cmd ChangeListingPriceCommand) (*dto.Listing, error) {
	unit, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	listing, err := loadOwned(unit.Ctx, unit.Listings(), cmd.ListingID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	changed, err := listing.ChangePrice(cmd.PricePerNight, support.Clock(h.Now))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := h.save(unit, listing); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("listing price changed", "listing_id", listing.ID, "price_per_night", listing.PricePerNight.Amount)
		}
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandler) save(unit *support.WriteUnit, listing *domainlistings.Listing) error {
	if err := unit.Listings().Save(unit.Ctx, listing); err != nil {
		return err
	}
	if err := support.PublishEvents(unit.Ctx, h.Outbox, h.Encoder, listing); err != nil {
		return err
	}
	return unit.Commit()
}

func (h *CommandHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

// loadOwned hides listings the actor does not own behind NotFound.
func loadOwned(ctx context.Context, repo domainlistings.Repository, id, actor string) (*domainlistings.Listing, error) {
	listing, err := repo.ByID(ctx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(actor)) {
		return nil, domainlistings.ErrNotOwner
	}
	return listing, nil
}

// Register attaches the listing commands to bus.
func (h *CommandHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[CreateListingCommand, *dto.Listing](bus, createListingKey, commands.HandlerFunc[CreateListingCommand, *dto.Listing](h.Create))
	commands.RegisterHandler[SetListingStatusCommand, *dto.Listing](bus, setListingStatusKey, commands.HandlerFunc[SetListingStatusCommand, *dto.Listing](h.SetStatus))
	commands.RegisterHandler[ChangeListingPriceCommand, *dto.Listing](bus, changePriceKey, commands.HandlerFunc[ChangeListingPriceCommand, *dto.Listing](h.ChangePrice))
}

var _ middleware.ActingMessage = CreateListingCommand{}
