package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID string `json:"listing_id"`
	GuestName string `json:"guest_name"`
	CheckIn   Date   `json:"check_in"`
	CheckOut  Date   `json:"check_out"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		GuestID:         user,
		ListingID:       strings.TrimSpace(req.ListingID),
		GuestName:       req.GuestName,
		CheckIn:         req.CheckIn.Time,
		CheckOut:        req.CheckOut.Time,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{ActorID: user, BookingID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, *dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListGuestBookingsQuery{GuestID: user})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListHost(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.ListHostBookingsQuery{HostID: user, Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, *dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, func(user, id string) bookingapp.TransitionBookingCommand {
		return bookingapp.ConfirmBooking(user, id)
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.transition(c, func(user, id string) bookingapp.TransitionBookingCommand {
		return bookingapp.CancelBooking(user, id, strings.TrimSpace(req.Reason))
	})
}

func (h BookingHandler) Complete(c *gin.Context) {
	h.transition(c, func(user, id string) bookingapp.TransitionBookingCommand {
		return bookingapp.CompleteBooking(user, id)
	})
}

func (h BookingHandler) transition(c *gin.Context, build func(user, id string) bookingapp.TransitionBookingCommand) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := build(user, strings.TrimSpace(c.Param("id")))
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
