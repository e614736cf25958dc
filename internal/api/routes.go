package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		subs := v1.Group("/subscriptions")
		{
			subs.GET("", handler.ListSubscriptions)
			subs.POST("", handler.AddSubscription)
			subs.DELETE("/:owner/:repo", handler.RemoveSubscription)
		}

		v1.POST("/run", handler.Run)

		reports := v1.Group("/reports")
		{
			reports.GET("", handler.ListReports)
			reports.GET("/:id", handler.GetReport)
		}

		sched := v1.Group("/scheduler")
		{
			sched.POST("/start", handler.StartScheduler)
			sched.POST("/stop", handler.StopScheduler)
			sched.GET("/status", handler.SchedulerStatus)
		}
	}

	return router
}
