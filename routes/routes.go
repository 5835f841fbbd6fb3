package routes

import (
	"net/http"
	"time"

	"voyager/handlers"
	"voyager/middleware"
	"voyager/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterWebhookRoutes registers the voice platform endpoints. No rate
// limiting here: the platform funnels every live call through a handful of
// IPs, so a per-IP budget would throttle calls against each other.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	webhook := r.Group("/webhook")
	{
		webhook.POST("/call", hb.CallStartHandler)
		webhook.POST("/tools", hb.ToolHandler)
		webhook.POST("/hangup", hb.HangupHandler)
	}
}

// RegisterAuthRoutes registers the dashboard login endpoint.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	auth := r.Group("/api/auth")
	{
		auth.Use(middleware.RateLimitMiddleware())
		auth.POST("/login", hb.AdminLoginHandler)
	}
}

// RegisterDashboardRoutes registers the operational API. Everything here
// requires an admin bearer token.
func RegisterDashboardRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.Use(middleware.RateLimitMiddleware())
		api.Use(middleware.JWTAuthAdminMiddleware())
		api.GET("/bookings", hb.ListBookingsHandler)
		api.GET("/bookings/:id", hb.GetBookingHandler)
		api.PATCH("/bookings/:id/status", hb.UpdateBookingStatusHandler)
		api.GET("/passengers/:phone", hb.GetPassengerHandler)
		api.GET("/calls", hb.ListCallsHandler)
		api.GET("/calls/:callID/summary", hb.GetCallSummaryHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the
// periodic dependency monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		health := utils.GetHealthStatus()
		status := http.StatusOK
		if !health.Mongo || !health.Redis {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "service": "voyager", "dependencies": health})
	})
}

// RegisterMetricsRoute exposes the Prometheus collectors.
func RegisterMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// CORS matters only for the dashboard; the voice platform POSTs
	// server-to-server.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWebhookRoutes(r, hb)
	RegisterAuthRoutes(r, hb)
	RegisterDashboardRoutes(r, hb)
	RegisterHealthRoute(r)
	RegisterMetricsRoute(r)
}
