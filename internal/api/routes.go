package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/history", handler.ListHistory)
		v1.GET("/history/*title", handler.GetHistory)
		v1.GET("/drops", handler.ListDrops)
		v1.GET("/runs", handler.ListRuns)
	}

	return router
}
