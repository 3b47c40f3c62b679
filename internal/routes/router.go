package routes

import (
	"tasksync/internal/controller"
	"tasksync/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Router wires the local HTTP surface. Reads are open; mutating routes sit
// behind the bearer-token middleware.
func Router(h *controller.Controller) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	// Public reads
	router.GET("/tasks", h.GetTasks)
	router.GET("/logs", h.GetLogs)
	router.GET("/sync/status", h.SyncState)
	router.GET("/sync/dead-letters", h.GetDeadLetters)

	// Protected: mutations and triggers
	api := router.Group("")
	api.Use(middleware.AuthMiddleware())
	{
		api.POST("/tasks", h.CreateTask)
		api.PUT("/tasks/:id", h.UpdateTask)
		api.DELETE("/tasks/:id", h.DeleteTask)
		api.POST("/tasks/:id/status", h.SetStatus)
		api.DELETE("/logs", h.ClearLogs)
		api.PUT("/settings/sort", h.SetSortOrder)
		api.POST("/sync", h.TriggerSync)
		api.DELETE("/sync/dead-letters", h.ClearDeadLetters)
	}

	return router
}
