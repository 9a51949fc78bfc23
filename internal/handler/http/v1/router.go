package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check открыт без ключа
	api.GET("/system/health", h.healthCheck)

	secured := api.Group("")
	secured.Use(APIKeyAuthMiddleware(h.cfg, h.logger), ActorMiddleware(h.cfg.ActorTokenSecret, h.logger))

	incidents := secured.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id/status", h.updateStatus)
		incidents.POST("/:id/close", h.closeIncident)
		incidents.POST("/:id/reclassify", h.reclassifyIncident)
		incidents.POST("/:id/location", h.updateLocation)
		incidents.POST("/:id/alerts/retry", h.retryAlerts)
	}

	secured.POST("/services/availability", h.pushAvailability)
	secured.GET("/deletion-jobs/escalated", h.escalatedDeletionJobs)
}
