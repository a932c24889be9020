package placements

import (
	"github.com/gin-gonic/gin"

	"adslot/internal/shared/config"
	"adslot/internal/shared/middleware"
)

func SetupPlacementRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	publicPlacements := router.Group("/placements")
	{
		publicPlacements.GET("/active", controller.ListActive)  // GET /api/v1/placements/active
		publicPlacements.POST("/checkout", controller.Checkout) // POST /api/v1/placements/checkout
	}

	settledPlacements := router.Group("/placements")
	settledPlacements.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleFacilitator, middleware.RoleAdmin))
	{
		settledPlacements.POST("", controller.SubmitClaim) // POST /api/v1/placements
	}

	slotPlacements := router.Group("/slots/:slot_id")
	{
		slotPlacements.GET("/occupant", controller.GetOccupant)                // GET /api/v1/slots/:slot_id/occupant
		slotPlacements.GET("/queue", controller.GetQueueInfo) // GET /api/v1/slots/:slot_id/queue
	}

	// Only the bidder, or an admin acting for one, may withdraw a queued bid
	bidderPlacements := router.Group("/slots/:slot_id")
	bidderPlacements.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleAdvertiser, middleware.RoleAdmin))
	{
		bidderPlacements.DELETE("/queue/:placement_id", controller.CancelQueued) // DELETE /api/v1/slots/:slot_id/queue/:placement_id
	}
}
