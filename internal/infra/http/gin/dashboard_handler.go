package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	dashboardapp "staybook/internal/app/handlers/dashboard"
	"staybook/internal/app/queries"
)

type DashboardHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h DashboardHandler) Host(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	asOf, err := parseDate(c.Query("as_of"))
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := queries.Ask[dashboardapp.HostDashboardQuery, *dto.HostDashboard](c.Request.Context(), h.Queries, dashboardapp.HostDashboardQuery{UserID: user, AsOf: asOf})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h DashboardHandler) Guest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	asOf, err := parseDate(c.Query("as_of"))
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := queries.Ask[dashboardapp.GuestDashboardQuery, *dto.GuestDashboard](c.Request.Context(), h.Queries, dashboardapp.GuestDashboardQuery{UserID: user, AsOf: asOf})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ DashboardHTTP = DashboardHandler{}
