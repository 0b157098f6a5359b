// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// Scanner finds J2534 pass-thru interfaces on the USB bus
type Scanner struct {
	logger          *zap.Logger
	knownInterfaces *InterfaceDatabase
	config          *Config
}

// Config for USB scanner
type Config struct {
	ScanTimeout   time.Duration `json:"scan_timeout"`
	EnableDebug   bool          `json:"enable_debug"`
	SkipPermCheck bool          `json:"skip_permission_check"`
	MaxConcurrent int           `json:"max_concurrent"`
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			ScanTimeout:   10 * time.Second,
			MaxConcurrent: 5,
		}
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 10 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}

	return &Scanner{
		logger:          logger.With(zap.String("scanner", "usb")),
		knownInterfaces: NewInterfaceDatabase(),
		config:          config,
	}
}

// TransportType returns the transport this scanner covers
func (s *Scanner) TransportType() transport.TransportType {
	return transport.TransportJ2534
}

// IsAvailable checks if USB scanning is available on this system
func (s *Scanner) IsAvailable() bool {
	switch runtime.GOOS {
	case "windows", "linux":
		return true
	case "darwin":
		if s.config.SkipPermCheck {
			return true
		}
		s.logger.Warn("USB scanning on macOS may require additional permissions")
		return true
	default:
		s.logger.Warn("USB scanning support unknown for OS", zap.String("os", runtime.GOOS))
		return false
	}
}

// Scan enumerates USB devices against the known pass-thru vendor table
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	startTime := time.Now()
	s.logger.Info("Starting USB pass-thru scan")

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	if s.config.EnableDebug {
		usbCtx.Debug(3)
	}

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return s.knownInterfaces.IsKnownVendor(desc.Vendor)
	})
	defer s.closeAllDevices(devices)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	s.logger.Info("Found USB devices to examine", zap.Int("device_count", len(devices)))

	discovered, err := s.processDevicesConcurrently(scanCtx, devices)
	if err != nil {
		return nil, err
	}

	s.logger.Info("USB scan completed",
		zap.Int("devices_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return discovered, nil
}

// processDevicesConcurrently examines devices with controlled concurrency
func (s *Scanner) processDevicesConcurrently(ctx context.Context, devices []*gousb.Device) ([]*discovery.DiscoveredDevice, error) {
	if len(devices) == 0 {
		return []*discovery.DiscoveredDevice{}, nil
	}

	deviceChan := make(chan *gousb.Device, len(devices))
	resultChan := make(chan *discovery.DiscoveredDevice, len(devices))

	maxWorkers := s.config.MaxConcurrent
	if maxWorkers > len(devices) {
		maxWorkers = len(devices)
	}
	for i := 0; i < maxWorkers; i++ {
		go s.deviceWorker(ctx, deviceChan, resultChan)
	}

	for _, device := range devices {
		select {
		case deviceChan <- device:
		case <-ctx.Done():
			close(deviceChan)
			return nil, ctx.Err()
		}
	}
	close(deviceChan)

	var discovered []*discovery.DiscoveredDevice
	for i := 0; i < len(devices); i++ {
		select {
		case result := <-resultChan:
			if result != nil {
				discovered = append(discovered, result)
			}
		case <-ctx.Done():
			return discovered, ctx.Err()
		}
	}

	return discovered, nil
}

// deviceWorker processes devices from the channel until it closes
func (s *Scanner) deviceWorker(ctx context.Context, deviceChan <-chan *gousb.Device, resultChan chan<- *discovery.DiscoveredDevice) {
	for {
		select {
		case device, ok := <-deviceChan:
			if !ok {
				return
			}
			resultChan <- s.processDevice(device)
		case <-ctx.Done():
			return
		}
	}
}

// processDevice turns one matched USB device into a pass-thru candidate
func (s *Scanner) processDevice(device *gousb.Device) *discovery.DiscoveredDevice {
	desc := device.Desc
	if desc == nil {
		return nil
	}

	vendorInfo := s.knownInterfaces.GetVendorInfo(desc.Vendor)
	if vendorInfo == nil {
		return nil
	}

	s.logger.Debug("Processing USB device",
		zap.String("vendor_id", fmt.Sprintf("0x%04X", uint16(desc.Vendor))),
		zap.String("product_id", fmt.Sprintf("0x%04X", uint16(desc.Product))),
	)

	candidate := &discovery.DiscoveredDevice{
		Address:       fmt.Sprintf("j2534:%04x:%04x", uint16(desc.Vendor), uint16(desc.Product)),
		TransportType: transport.TransportJ2534,
		DisplayName:   s.displayName(vendorInfo, desc, device),
		Identifiers: map[string]string{
			"vendor_id":  fmt.Sprintf("%04X", uint16(desc.Vendor)),
			"product_id": fmt.Sprintf("%04X", uint16(desc.Product)),
			"bus":        fmt.Sprintf("%d", desc.Bus),
			"usb_addr":   fmt.Sprintf("%d", desc.Address),
		},
	}

	if serial, err := device.SerialNumber(); err == nil {
		if serial = strings.TrimSpace(serial); serial != "" {
			candidate.Identifiers["serial_number"] = serial
		}
	}

	return candidate
}

// displayName prefers the product table, then the device's own strings
func (s *Scanner) displayName(vendorInfo *VendorInfo, desc *gousb.DeviceDesc, device *gousb.Device) string {
	if productInfo := vendorInfo.GetProductInfo(desc.Product); productInfo != nil {
		return productInfo.Model
	}

	if product, err := device.Product(); err == nil {
		if product = strings.TrimSpace(product); product != "" {
			return fmt.Sprintf("%s %s", vendorInfo.Name, product)
		}
	}

	return fmt.Sprintf("%s pass-thru %04X", vendorInfo.Name, uint16(desc.Product))
}

// closeAllDevices safely closes all opened USB devices
func (s *Scanner) closeAllDevices(devices []*gousb.Device) {
	for i, device := range devices {
		if device != nil {
			if err := device.Close(); err != nil {
				s.logger.Warn("Failed to close USB device",
					zap.Int("device_index", i),
					zap.Error(err),
				)
			}
		}
	}
}
