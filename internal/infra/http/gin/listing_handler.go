package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/queries"
)

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createListingRequest struct {
	Title         string `json:"title"`
	Location      string `json:"location"`
	PricePerNight int64  `json:"price_per_night"`
	Status        string `json:"status"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type changePriceRequest struct {
	PricePerNight int64 `json:"price_per_night"`
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.CreateListingCommand{
		Owner:         user,
		Title:         req.Title,
		Location:      req.Location,
		PricePerNight: req.PricePerNight,
		Status:        strings.ToLower(strings.TrimSpace(req.Status)),
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	query := listingapp.GetListingQuery{ID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[listingapp.GetListingQuery, *dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) ListHost(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := queries.Ask[listingapp.ListHostListingsQuery, *dto.ListingCollection](c.Request.Context(), h.Queries, listingapp.ListHostListingsQuery{Owner: user})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) SetStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.SetListingStatusCommand{ActorID: user, ListingID: strings.TrimSpace(c.Param("id")), Status: req.Status}
	result, err := commands.Dispatch[listingapp.SetListingStatusCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) ChangePrice(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req changePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.ChangeListingPriceCommand{ActorID: user, ListingID: strings.TrimSpace(c.Param("id")), PricePerNight: req.PricePerNight}
	result, err := commands.Dispatch[listingapp.ChangeListingPriceCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
