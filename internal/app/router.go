package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridebook/internal/handler"
	"ridebook/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	PaymentHandler *handler.PaymentHandler
	RatingHandler  *handler.RatingHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"}
	router.Use(cors.New(corsConfig))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.ListRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.PATCH("/:id", deps.RideHandler.EditRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/reject", deps.RideHandler.RejectRide)
			rides.POST("/:id/start", deps.RideHandler.StartRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/confirm-cash", deps.RideHandler.ConfirmCash)
			rides.GET("/:id/payments", deps.RideHandler.ListRidePayments)
			rides.POST("/:id/rating", deps.RatingHandler.SubmitRating)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.RegisterDriver)
			drivers.GET("/available", deps.DriverHandler.ListAvailableDrivers)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.POST("/:id/availability", deps.DriverHandler.SetAvailability)
			drivers.POST("/:id/approval", deps.DriverHandler.SetApproval)
			drivers.PUT("/:id/vehicle", deps.DriverHandler.UpdateVehicle)
			drivers.GET("/:id/rating", deps.DriverHandler.GetDriverRating)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/initialize", deps.PaymentHandler.InitializePayment)
			payments.GET("/callback", deps.PaymentHandler.Callback)
		}
	}

	return router
}
