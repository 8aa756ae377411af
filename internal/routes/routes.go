package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/opsdesk/backend/internal/config"
	"github.com/opsdesk/backend/internal/controllers"
)

// SetupRoutes configures all application routes.
func SetupRoutes(r *gin.Engine, logStore controllers.LogStore, qa controllers.Answerer, caps config.Capabilities) {
	logController := controllers.NewLogController(logStore)
	qaController := controllers.NewQAController(qa, caps)

	api := r.Group("/api")
	{
		api.GET("/logs", logController.GetLogs)
		api.POST("/logs/update", logController.UpdateLog)
		api.POST("/ask", qaController.Ask)
	}
}
