// internal/handler/history_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/repository"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// HistoryHandler handles detection history HTTP requests
type HistoryHandler struct {
	history repository.DetectionRepository
	logger  *utils.ServiceLogger
}

// NewHistoryHandler creates a new detection history handler
func NewHistoryHandler(history repository.DetectionRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  utils.NewServiceLogger(logger, "history-handler"),
	}
}

// RegisterRoutes registers detection history routes
func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	history := router.Group("/history")
	{
		history.GET("", h.ListHistory)
		history.GET("/stats", h.GetStats)
		history.DELETE("", h.PruneHistory)
	}
}

// ListHistory lists detection history with filtering and pagination
// @Summary List detection history
// @Description Get past protocol detection runs with filtering and pagination support
// @Tags History
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param address query string false "Filter by adapter address"
// @Param transport_type query string false "Filter by transport" Enums(bluetooth, wifi, serial, j2534)
// @Param success query bool false "Filter by outcome"
// @Param start_date query string false "Include runs at or after this RFC3339 time"
// @Param end_date query string false "Include runs before this RFC3339 time"
// @Success 200 {object} utils.APIResponse{data=object{items=[]model.DetectionRecord,pagination=utils.Pagination}} "History retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	filter := &repository.DetectionFilter{
		Page:    1,
		PerPage: 20,
	}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 100 {
			filter.PerPage = pp
		}
	}

	if address := c.Query("address"); address != "" {
		filter.Address = &address
	}
	if value := c.Query("transport_type"); value != "" {
		transportType, err := parseTransportType(value)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Unknown transport", err)
			return
		}
		filter.TransportType = &transportType
	}
	if value := c.Query("success"); value != "" {
		success, err := strconv.ParseBool(value)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid success filter", err)
			return
		}
		filter.Success = &success
	}
	if value := c.Query("start_date"); value != "" {
		start, err := time.Parse(time.RFC3339, value)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
		filter.StartDate = &start
	}
	if value := c.Query("end_date"); value != "" {
		end, err := time.Parse(time.RFC3339, value)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
		filter.EndDate = &end
	}

	records, total, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list detection history", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	utils.PaginatedResponse(c, "Detection history retrieved", records, utils.Pagination{
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	})
}

// GetStats summarizes detection history
// @Summary Detection statistics
// @Description Get aggregate counts, durations, and per-protocol breakdowns for past detection runs
// @Tags History
// @Accept json
// @Produce json
// @Param address query string false "Restrict to one adapter address"
// @Success 200 {object} utils.APIResponse{data=repository.DetectionStats} "Statistics retrieved"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /history/stats [get]
func (h *HistoryHandler) GetStats(c *gin.Context) {
	var address *string
	if value := c.Query("address"); value != "" {
		address = &value
	}

	stats, err := h.history.Stats(c.Request.Context(), address)
	if err != nil {
		h.logger.Error("Failed to compute detection stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Detection statistics", stats)
}

// PruneHistory removes old detection records
// @Summary Prune detection history
// @Description Delete detection records older than the given number of days
// @Tags History
// @Accept json
// @Produce json
// @Param older_than_days query int false "Age threshold in days" default(30)
// @Success 200 {object} utils.APIResponse{data=object{pruned=int}} "History pruned"
// @Failure 400 {object} utils.APIResponse "Invalid threshold"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /history [delete]
func (h *HistoryHandler) PruneHistory(c *gin.Context) {
	days := 30
	if value := c.Query("older_than_days"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid older_than_days", err)
			return
		}
		days = parsed
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	pruned, err := h.history.Prune(c.Request.Context(), cutoff)
	if err != nil {
		h.logger.Error("Failed to prune detection history", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to prune history", err)
		return
	}

	h.logger.Info("Detection history pruned",
		zap.Int64("records", pruned),
		zap.Time("cutoff", cutoff),
	)
	utils.SuccessResponse(c, http.StatusOK, "Detection history pruned", gin.H{
		"pruned": pruned,
	})
}
