package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/infra/config"
	"alxtravel/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
}

type AvailabilityHTTP interface {
	Free(c *gin.Context)
	Quote(c *gin.Context)
}

type ListingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	UpdatePrice(c *gin.Context)
	Activate(c *gin.Context)
	Deactivate(c *gin.Context)
}

type ReviewsHTTP interface {
	Submit(c *gin.Context)
	ListByListing(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Listing      ListingHTTP
	Reviews      ReviewsHTTP
	Me           MeHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter wires routes without touching the process-wide gin mode.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", obs.CallerHeader, idempotencyHeader},
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
		api.PUT("/listings/:id/price", h.Listing.UpdatePrice)
		api.POST("/listings/:id/activate", h.Listing.Activate)
		api.POST("/listings/:id/deactivate", h.Listing.Deactivate)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Free)
		api.GET("/listings/:id/quote", h.Availability.Quote)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Reviews != nil {
		api.POST("/listings/:id/reviews", h.Reviews.Submit)
		api.GET("/listings/:id/reviews", h.Reviews.ListByListing)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
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
