package slots

import (
	"github.com/gin-gonic/gin"

	"adslot/internal/shared/config"
	"adslot/internal/shared/middleware"
)

func SetupSlotRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	publicSlots := router.Group("/slots")
	{
		publicSlots.GET("", controller.ListSlots)        // GET /api/v1/slots
		publicSlots.GET("/:slot_id", controller.GetSlot) // GET /api/v1/slots/:slot_id
	}

	publisherSlots := router.Group("/slots")
	publisherSlots.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RolePublisher, middleware.RoleAdmin))
	{
		publisherSlots.POST("", controller.CreateSlot)            // POST /api/v1/slots
		publisherSlots.DELETE("/:slot_id", controller.DeleteSlot) // DELETE /api/v1/slots/:slot_id
	}
}
