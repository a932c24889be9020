package content

import "github.com/gin-gonic/gin"

func SetupContentRoutes(router *gin.RouterGroup, controller Controller) {
	content := router.Group("/content")
	{
		content.POST("", controller.Upload)     // POST /api/v1/content - Upload ad media
		content.GET("/:ref", controller.Fetch) // GET /api/v1/content/:ref - Fetch ad media
	}
}
