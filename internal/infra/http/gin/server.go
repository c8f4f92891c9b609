package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type ListingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListHost(c *gin.Context)
	SetStatus(c *gin.Context)
	ChangePrice(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Blocked(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	ListHost(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
}

type DashboardHTTP interface {
	Host(c *gin.Context)
	Guest(c *gin.Context)
}

type Handlers struct {
	Listing      ListingHTTP
	Availability AvailabilityHTTP
	Booking      BookingHTTP
	Dashboard    DashboardHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg.Env, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every route under /api/v1.
func NewRouter(env string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", userHeader, "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Listing != nil {
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
		api.PUT("/listings/:id/status", h.Listing.SetStatus)
		api.PUT("/listings/:id/price", h.Listing.ChangePrice)
		api.GET("/host/listings", h.Listing.ListHost)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Check)
		api.GET("/listings/:id/blocked", h.Availability.Blocked)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/complete", h.Booking.Complete)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/host/bookings", h.Booking.ListHost)
	}
	if h.Dashboard != nil {
		api.GET("/dashboard/host", h.Dashboard.Host)
		api.GET("/dashboard/guest", h.Dashboard.Guest)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
