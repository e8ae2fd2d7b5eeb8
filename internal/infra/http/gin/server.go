package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"gearshare/internal/infra/config"
	"gearshare/internal/infra/obs"
)

type RentalHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Start(c *gin.Context)
	Complete(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Slots(c *gin.Context)
}

type ListingHTTP interface {
	Create(c *gin.Context)
}

type WebhookHTTP interface {
	Receive(c *gin.Context)
}

type Handlers struct {
	Rental       RentalHTTP
	Availability AvailabilityHTTP
	Listing      ListingHTTP
	Webhook      WebhookHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID"},
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
	if h.Rental != nil {
		api.POST("/rentals", h.Rental.Create)
		api.POST("/rentals/:id/cancel", h.Rental.Cancel)
		api.POST("/rentals/:id/start", h.Rental.Start)
		api.POST("/rentals/:id/complete", h.Rental.Complete)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
		api.GET("/listings/:id/slots", h.Availability.Slots)
	}
	if h.Listing != nil {
		api.POST("/listings", h.Listing.Create)
	}
	if h.Webhook != nil {
		api.POST("/payments/webhook", h.Webhook.Receive)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
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
