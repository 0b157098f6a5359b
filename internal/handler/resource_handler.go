// internal/handler/resource_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// ResourceHandler exposes the resource supervisor's view of connection usage
type ResourceHandler struct {
	resources *resource.Manager
	logger    *utils.ServiceLogger
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resources *resource.Manager, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{
		resources: resources,
		logger:    utils.NewServiceLogger(logger, "resource-handler"),
	}
}

// RegisterRoutes registers resource supervision routes
func (h *ResourceHandler) RegisterRoutes(router *gin.RouterGroup) {
	resources := router.Group("/resources")
	{
		resources.GET("/stats", h.GetStats)
		resources.GET("/connections", h.GetConnections)
		resources.GET("/alerts", h.GetAlerts)
		resources.POST("/cleanup", h.ForceCleanup)
	}
}

// GetStats returns connection accounting and memory figures
// @Summary Resource statistics
// @Description Get active connection counts, peak usage, cleanup totals, and heap figures from the resource supervisor
// @Tags Resources
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=resource.Snapshot} "Statistics retrieved"
// @Router /resources/stats [get]
func (h *ResourceHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Resource statistics", h.resources.Stats())
}

// GetConnections returns per-connection supervision records
// @Summary Supervised connections
// @Description Get monitoring records for every supervised connection, active and recently released
// @Tags Resources
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{connections=[]resource.ConnectionResource,total=int}} "Connections retrieved"
// @Router /resources/connections [get]
func (h *ResourceHandler) GetConnections(c *gin.Context) {
	details := h.resources.ConnectionDetails()
	utils.SuccessResponse(c, http.StatusOK, "Supervised connections", gin.H{
		"connections": details,
		"total":       len(details),
	})
}

// GetAlerts returns the recent resource alert history
// @Summary Resource alerts
// @Description Get recent leak, limit, and memory alerts raised by the resource supervisor
// @Tags Resources
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{alerts=[]resource.Alert,total=int}} "Alerts retrieved"
// @Router /resources/alerts [get]
func (h *ResourceHandler) GetAlerts(c *gin.Context) {
	alerts := h.resources.History()
	utils.SuccessResponse(c, http.StatusOK, "Resource alerts", gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// ForceCleanup runs a supervision pass immediately
// @Summary Force resource cleanup
// @Description Release abandoned and over-age connections now instead of waiting for the periodic sweep
// @Tags Resources
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{cleaned=int}} "Cleanup completed"
// @Router /resources/cleanup [post]
func (h *ResourceHandler) ForceCleanup(c *gin.Context) {
	cleaned := h.resources.ForceCleanup()
	h.logger.Info("Forced resource cleanup", zap.Int("cleaned", cleaned))
	utils.SuccessResponse(c, http.StatusOK, "Cleanup completed", gin.H{
		"cleaned": cleaned,
	})
}
