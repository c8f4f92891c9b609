package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	checkIn, err := parseDate(c.Query("check_in"))
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := parseDate(c.Query("check_out"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{
		ListingID:        strings.TrimSpace(c.Param("id")),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		ExcludeBookingID: c.Query("exclude"),
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, *dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Blocked(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.BlockedDatesQuery{ListingID: strings.TrimSpace(c.Param("id")), From: from, To: to}
	result, err := queries.Ask[availabilityapp.BlockedDatesQuery, *dto.BlockedDates](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
