// internal/handler/discovery_handler.go
package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// DiscoveryHandler handles scanner discovery requests
type DiscoveryHandler struct {
	discovery *discovery.Service
	logger    *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(svc *discovery.Service, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discovery: svc,
		logger:    utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	disc := router.Group("/discovery")
	{
		disc.GET("/scan", h.ScanScanners)
		disc.GET("/transports", h.ListTransports)
	}
}

// ScanScanners scans for reachable scan-tool adapters
// @Summary Scan for scanners
// @Description Scan for reachable scan-tool adapters on Bluetooth, WiFi, serial, or J2534 transports
// @Tags Discovery
// @Accept json
// @Produce json
// @Param transport query string false "Transport to scan" Enums(all, bluetooth, wifi, serial, j2534) default(all)
// @Success 200 {object} utils.APIResponse{data=object{scanners_found=int,scanners=[]discovery.DiscoveredDevice}} "Scan completed"
// @Failure 400 {object} utils.APIResponse "Unknown transport"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanScanners(c *gin.Context) {
	scanType := c.DefaultQuery("transport", "all")

	var (
		devices []*discovery.DiscoveredDevice
		err     error
	)

	if scanType == "all" {
		devices, err = h.discovery.ScanAll(c.Request.Context())
	} else {
		transportType, parseErr := parseTransportType(scanType)
		if parseErr != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Unknown transport", parseErr)
			return
		}
		devices, err = h.discovery.ScanTransport(c.Request.Context(), transportType)
	}

	if err != nil {
		h.logger.Error("Scanner scan failed", zap.String("transport", scanType), zap.Error(err))
		scannerErrorResponse(c, "Failed to scan for scanners", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scanner scan completed", gin.H{
		"scanners_found": len(devices),
		"scanners":       devices,
	})
}

// ListTransports lists the transports with a registered scanner backend
// @Summary List available transports
// @Description List the transport types this host can actually scan
// @Tags Discovery
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{transports=[]string}} "Transports retrieved"
// @Router /discovery/transports [get]
func (h *DiscoveryHandler) ListTransports(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Available transports", gin.H{
		"transports": h.discovery.AvailableTransports(),
	})
}

// parseTransportType resolves a transport name from a query or path value.
func parseTransportType(value string) (transport.TransportType, error) {
	for _, t := range transport.SupportedTransports() {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transport type %q", value)
}
