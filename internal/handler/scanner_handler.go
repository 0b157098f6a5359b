// internal/handler/scanner_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/manager"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// ScannerHandler handles scanner session HTTP requests
type ScannerHandler struct {
	scanner *manager.ScannerManager
	logger  *utils.ServiceLogger
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(scanner *manager.ScannerManager, logger *zap.Logger) *ScannerHandler {
	return &ScannerHandler{
		scanner: scanner,
		logger:  utils.NewServiceLogger(logger, "scanner-handler"),
	}
}

// RegisterRoutes registers scanner session routes
func (h *ScannerHandler) RegisterRoutes(router *gin.RouterGroup) {
	scanner := router.Group("/scanner")
	{
		scanner.POST("/connect", h.Connect)
		scanner.POST("/connect/auto", h.ConnectAuto)
		scanner.POST("/disconnect", h.Disconnect)
		scanner.POST("/reconnect", h.Reconnect)
		scanner.GET("/status", h.GetStatus)
		scanner.GET("/statistics", h.GetStatistics)
		scanner.GET("/health", h.GetHealth)
		scanner.POST("/command", h.SendCommand)
		scanner.POST("/obd", h.SendObdCommand)
		scanner.POST("/detect", h.StartDetection)
		scanner.DELETE("/detect", h.CancelDetection)
		scanner.GET("/protocols", h.ListProtocols)
	}
}

// ConnectRequest is the body for explicit-address connect calls.
type ConnectRequest struct {
	Address    string                      `json:"address" binding:"required"`
	AutoDetect *bool                       `json:"auto_detect,omitempty"`
	Config     *transport.ConnectionConfig `json:"config,omitempty"`
}

// ConnectAutoRequest is the body for discovery-driven connect calls.
type ConnectAutoRequest struct {
	AutoDetect *bool                       `json:"auto_detect,omitempty"`
	Config     *transport.ConnectionConfig `json:"config,omitempty"`
}

// DisconnectRequest is the body for disconnect calls.
type DisconnectRequest struct {
	Graceful *bool `json:"graceful,omitempty"`
}

// CommandRequest is the body for raw and OBD command calls.
type CommandRequest struct {
	Command   string `json:"command" binding:"required"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

// CommandResponse carries one adapter reply.
type CommandResponse struct {
	Command  string `json:"command"`
	Response string `json:"response"`
	Partial  bool   `json:"partial"`
}

// DetectRequest is the body for protocol detection calls.
type DetectRequest struct {
	Vehicle           *obd.VehicleInfo `json:"vehicle,omitempty"`
	PreferredProtocol obd.Protocol     `json:"preferred_protocol,omitempty"`
}

// Connect establishes a scanner connection
// @Summary Connect to a scanner
// @Description Connect to a scan-tool adapter by address. The transport is inferred from the address shape; auto-detect runs protocol detection after the link is up.
// @Tags Scanner
// @Accept json
// @Produce json
// @Param request body ConnectRequest true "Connect request"
// @Success 200 {object} utils.APIResponse{data=manager.ConnectResult} "Connected"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 503 {object} utils.APIResponse "Adapter unreachable"
// @Router /scanner/connect [post]
func (h *ScannerHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	autoDetect := true
	if req.AutoDetect != nil {
		autoDetect = *req.AutoDetect
	}

	result, err := h.scanner.Connect(c.Request.Context(), req.Address, req.Config, autoDetect)
	if err != nil {
		h.logger.Error("Connect failed", zap.String("address", req.Address), zap.Error(err))
		scannerErrorResponse(c, "Failed to connect to scanner", err)
		return
	}

	h.logger.Info("Scanner connected",
		zap.String("address", result.Address),
		zap.String("transport_type", string(result.TransportType)),
	)
	utils.SuccessResponse(c, http.StatusOK, "Scanner connected", result)
}

// ConnectAuto discovers and connects to the first reachable scanner
// @Summary Auto-connect to a scanner
// @Description Scan all available transports and connect to the first adapter that accepts a session.
// @Tags Scanner
// @Accept json
// @Produce json
// @Param request body ConnectAutoRequest false "Auto-connect options"
// @Success 200 {object} utils.APIResponse{data=manager.ConnectResult} "Connected"
// @Failure 503 {object} utils.APIResponse "No adapter found"
// @Router /scanner/connect/auto [post]
func (h *ScannerHandler) ConnectAuto(c *gin.Context) {
	var req ConnectAutoRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	autoDetect := true
	if req.AutoDetect != nil {
		autoDetect = *req.AutoDetect
	}

	result, err := h.scanner.ConnectAuto(c.Request.Context(), req.Config, autoDetect)
	if err != nil {
		h.logger.Error("Auto-connect failed", zap.Error(err))
		scannerErrorResponse(c, "Failed to auto-connect", err)
		return
	}

	h.logger.Info("Scanner connected via discovery",
		zap.String("address", result.Address),
		zap.String("transport_type", string(result.TransportType)),
	)
	utils.SuccessResponse(c, http.StatusOK, "Scanner connected", result)
}

// Disconnect closes the active scanner connection
// @Summary Disconnect the scanner
// @Description Close the active scanner session. Graceful disconnects reset the adapter first.
// @Tags Scanner
// @Accept json
// @Produce json
// @Param request body DisconnectRequest false "Disconnect options"
// @Success 200 {object} utils.APIResponse "Disconnected"
// @Router /scanner/disconnect [post]
func (h *ScannerHandler) Disconnect(c *gin.Context) {
	var req DisconnectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	graceful := true
	if req.Graceful != nil {
		graceful = *req.Graceful
	}

	if err := h.scanner.Disconnect(graceful); err != nil {
		h.logger.Error("Disconnect failed", zap.Error(err))
		scannerErrorResponse(c, "Failed to disconnect", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scanner disconnected", nil)
}

// Reconnect re-establishes the active scanner connection
// @Summary Reconnect the scanner
// @Description Tear down and re-dial the active scanner connection using its original address and settings.
// @Tags Scanner
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=transport.ConnectionInfo} "Reconnected"
// @Failure 404 {object} utils.APIResponse "No active connection"
// @Failure 503 {object} utils.APIResponse "Adapter unreachable"
// @Router /scanner/reconnect [post]
func (h *ScannerHandler) Reconnect(c *gin.Context) {
	info, err := h.scanner.Reconnect(c.Request.Context())
	if err != nil {
		h.logger.Error("Reconnect failed", zap.Error(err))
		scannerErrorResponse(c, "Failed to reconnect", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scanner reconnected", info)
}

// GetStatus returns the current scanner session status
// @Summary Scanner status
// @Description Get the current connection state, active protocol, and link details.
// @Tags Scanner
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=manager.Status} "Status retrieved"
// @Router /scanner/status [get]
func (h *ScannerHandler) GetStatus(c *gin.Context) {
	status := h.scanner.Status()
	utils.SuccessResponse(c, http.StatusOK, "Scanner status", status)
}

// GetStatistics returns communication statistics for the active connection
// @Summary Scanner statistics
// @Description Get traffic counters and response-time aggregates for the active connection.
// @Tags Scanner
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=transport.StatisticsSnapshot} "Statistics retrieved"
// @Failure 503 {object} utils.APIResponse "No active connection"
// @Router /scanner/statistics [get]
func (h *ScannerHandler) GetStatistics(c *gin.Context) {
	stats, err := h.scanner.Statistics()
	if err != nil {
		scannerErrorResponse(c, "No statistics available", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scanner statistics", stats)
}

// GetHealth probes the active adapter and grades the link
// @Summary Scanner health check
// @Description Probe the active adapter, grade round-trip quality, and read the vehicle supply voltage.
// @Tags Scanner
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=manager.HealthReport} "Health retrieved"
// @Failure 503 {object} utils.APIResponse "No active connection"
// @Router /scanner/health [get]
func (h *ScannerHandler) GetHealth(c *gin.Context) {
	report, err := h.scanner.CheckHealth(c.Request.Context())
	if err != nil {
		scannerErrorResponse(c, "Health check failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scanner health", report)
}

// SendCommand sends a raw command through the active scanner
// @Summary Send a raw command
// @Description Send a raw adapter command (AT or protocol passthrough) and wait for the prompt-terminated reply.
// @Tags Scanner
// @Accept json
// @Produce json
// @Param request body CommandRequest true "Command request"
// @Success 200 {object} utils.APIResponse{data=CommandResponse} "Command executed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 503 {object} utils.APIResponse "No active connection"
// @Failure 504 {object} utils.APIResponse "Command timed out"
// @Router /scanner/command [post]
func (h *ScannerHandler) SendCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	result, err := h.scanner.SendCommand(c.Request.Context(), req.Command, timeout)
	if err != nil {
		h.logger.Error("Command failed", zap.String("command", req.Command), zap.Error(err))
		scannerErrorResponse(c, "Command failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Command executed", CommandResponse{
		Command:  req.Command,
		Response: result.Data,
		Partial:  result.Partial,
	})
}

// SendObdCommand sends a validated OBD-II request through the active scanner
// @Summary Send an OBD-II command
// @Description Send an OBD-II request given as hex digit pairs, for example 0100 or 010C. Whitespace is stripped and the command uppercased before transmission.
// @Tags Scanner
// @Accept json
// @Produce json
// @Param request body CommandRequest true "OBD command request"
// @Success 200 {object} utils.APIResponse{data=CommandResponse} "Command executed"
// @Failure 400 {object} utils.APIResponse "Malformed OBD command"
// @Failure 503 {object} utils.APIResponse "No active connection"
// @Router /scanner/obd [post]
func (h *ScannerHandler) SendObdCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	result, err := h.scanner.SendObdCommand(c.Request.Context(), req.Command, timeout)
	if err != nil {
		h.logger.Error("OBD command failed", zap.String("command", req.Command), zap.Error(err))
		scannerErrorResponse(c, "OBD command failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Command executed", CommandResponse{
		Command:  req.Command,
		Response: result.Data,
		Partial:  result.Partial,
	})
}

// StartDetection runs protocol detection on the active connection
// @Summary Detect the vehicle protocol
// @Description Run wire-protocol detection over the active adapter. Vehicle details, when given, reorder the candidate protocols; a preferred protocol is tried first.
// @Tags Scanner
// @Accept json
// @Produce json
// @Param request body DetectRequest false "Detection options"
// @Success 200 {object} utils.APIResponse{data=detect.Result} "Detection finished"
// @Failure 409 {object} utils.APIResponse "Detection already running"
// @Failure 422 {object} utils.APIResponse "No protocol matched"
// @Failure 503 {object} utils.APIResponse "No active connection"
// @Router /scanner/detect [post]
func (h *ScannerHandler) StartDetection(c *gin.Context) {
	var req DetectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	result, err := h.scanner.DetectProtocol(c.Request.Context(), req.Vehicle, req.PreferredProtocol)
	if err != nil {
		h.logger.Warn("Protocol detection failed", zap.Error(err))
		scannerErrorResponse(c, "Protocol detection failed", err)
		return
	}

	h.logger.Info("Protocol detected",
		zap.String("protocol", result.Protocol.String()),
		zap.Float64("confidence", result.Confidence),
	)
	utils.SuccessResponse(c, http.StatusOK, "Protocol detected", result)
}

// ProtocolInfo describes one selectable wire protocol.
type ProtocolInfo struct {
	ID          obd.Protocol `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CAN         bool         `json:"can"`
	Legacy      bool         `json:"legacy"`
}

// ListProtocols returns the selectable wire protocols
// @Summary List wire protocols
// @Description List every diagnostic wire protocol the detection engine can select, in the default probe order.
// @Tags Scanner
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{protocols=[]ProtocolInfo,total=int}} "Protocols retrieved"
// @Router /scanner/protocols [get]
func (h *ScannerHandler) ListProtocols(c *gin.Context) {
	all := obd.AllProtocols()
	protocols := make([]ProtocolInfo, 0, len(all))
	for _, p := range all {
		protocols = append(protocols, ProtocolInfo{
			ID:          p,
			Name:        p.String(),
			Description: p.Description(),
			CAN:         p.IsCAN(),
			Legacy:      p.IsLegacy(),
		})
	}
	utils.SuccessResponse(c, http.StatusOK, "Supported protocols", gin.H{
		"protocols": protocols,
		"total":     len(protocols),
	})
}

// CancelDetection aborts a running protocol detection
// @Summary Cancel protocol detection
// @Description Abort the detection run in progress, if any.
// @Tags Scanner
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{cancelled=bool}} "Cancel processed"
// @Router /scanner/detect [delete]
func (h *ScannerHandler) CancelDetection(c *gin.Context) {
	cancelled := h.scanner.CancelDetection()
	utils.SuccessResponse(c, http.StatusOK, "Detection cancel processed", gin.H{
		"cancelled": cancelled,
	})
}
