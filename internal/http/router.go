package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	intconfig "seatengine/internal/config"
	h "seatengine/internal/http/handlers"
	"seatengine/internal/http/middleware"
	"seatengine/internal/services"
	"seatengine/internal/utils"
)

// Deps are the services the router exposes. Redis may be nil.
type Deps struct {
	Bookings  services.BookingService
	Query     services.QueryService
	Inventory services.InventoryService
	Pricing   services.PricingService
	Docs      services.DocsService
	Redis     *redis.Client
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(env.AllowedOrigins()),
		middleware.RateLimit(env.RateLimitPerMin),
		middleware.Auth(env.JWTSecret),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"message": "route not found",
			"code":    "not_found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bh := h.NewBookingHandler(deps.Bookings, deps.Query, deps.Inventory, deps.Docs)
	ch := h.NewCatalogHandler(deps.Pricing)
	admin := middleware.RequireAdmin(env.AdminKeyHash)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", admin, h.Routes)

		api.GET("/packages", ch.Packages)
		api.GET("/packages/:id", ch.Package)
		api.POST("/quotes", ch.Quote)

		bookings := api.Group("/bookings")
		bookings.GET("/seat-status", bh.SeatStatus)
		bookings.GET("/occupied-seats", bh.OccupiedSeats)
		bookings.GET("/available-seats", bh.AvailableSeats)
		bookings.POST("/refresh-seats", bh.RefreshSeats)
		bookings.POST("", middleware.Idempotency(deps.Redis), bh.Create)
		bookings.GET("/user/:userId", bh.ListByUser)

		// Operator tooling.
		bookings.DELETE("/clear-occupied-seats", admin, bh.ClearOccupiedSeats)
		bookings.DELETE("/clear-all-test-bookings", admin, bh.ClearAllTestBookings)
		bookings.POST("/update-seat-status", admin, bh.UpdateSeatStatus)
		bookings.GET("", admin, bh.ListAll)
		bookings.GET("/all", admin, bh.ListAll)
		bookings.GET("/recent", admin, bh.Recent)
		bookings.GET("/today", admin, bh.Today)
		bookings.GET("/bus/:busId", admin, bh.ListByBus)
		bookings.GET("/route/:routeId", admin, bh.ListByRoute)

		bookings.GET("/:id", bh.Get)
		bookings.GET("/:id/e-ticket", bh.ETicket)
		bookings.GET("/:id/invoice", bh.Invoice)
		bookings.PUT("/:id/cancel", bh.Cancel)
		bookings.PUT("/:id/status", admin, bh.UpdateStatus)
	}

	h.SetRouter(r)
	return r
}
