package analytics

import (
	"github.com/gin-gonic/gin"

	"adslot/internal/shared/config"
	"adslot/internal/shared/middleware"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, cfg *config.Config) {
	analytics := rg.Group("/analytics")

	// Reported by the embed script
	analytics.POST("/ad-view", controller.TrackView)
	analytics.POST("/ad-click", controller.TrackClick)
	analytics.POST("/ad-error", controller.TrackError)

	publisher := analytics.Group("/slots")
	publisher.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RolePublisher, middleware.RoleAdmin))
	{
		publisher.GET("/:slot_id", controller.GetSlotSummary) // GET /api/v1/analytics/slots/:slot_id
	}
}
