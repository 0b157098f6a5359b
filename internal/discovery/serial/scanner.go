// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// bridgeVendors maps USB-UART bridge vendor IDs to chip families. ELM327
// clones ship almost exclusively on these.
var bridgeVendors = map[string]string{
	"0403": "FTDI",
	"10C4": "Silicon Labs CP210x",
	"067B": "Prolific PL2303",
	"1A86": "WCH CH340",
	"0483": "STMicroelectronics VCP",
}

// Scanner finds USB-serial adapters that look like scan tools
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for serial scanner. A non-default BaudRate is appended to
// discovered addresses as a "path@baud" suffix for the serial dialer.
type Config struct {
	PortPatterns []string `json:"port_patterns"`
	IncludeAll   bool     `json:"include_all"`
	BaudRate     int      `json:"baud_rate"`
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if len(config.PortPatterns) == 0 {
		config.PortPatterns = defaultPortPatterns()
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
	}
}

// TransportType returns the transport this scanner covers
func (s *Scanner) TransportType() transport.TransportType {
	return transport.TransportSerial
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan enumerates serial ports and keeps the ones on known USB-UART
// bridges or matching the configured port name patterns. Ports are not
// opened; probing a port someone else holds can wedge the device.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	s.logger.Info("Starting serial port scan")

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var discovered []*discovery.DiscoveredDevice
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return discovered, ctx.Err()
		default:
		}

		device := s.examinePort(port)
		if device != nil {
			discovered = append(discovered, device)
		}
	}

	s.logger.Info("Serial scan completed", zap.Int("devices_found", len(discovered)))
	return discovered, nil
}

// examinePort decides whether one enumerated port is a candidate
func (s *Scanner) examinePort(port *enumerator.PortDetails) *discovery.DiscoveredDevice {
	vendorName, knownBridge := bridgeVendors[strings.ToUpper(port.VID)]

	if !knownBridge && !s.matchesPattern(port.Name) && !s.config.IncludeAll {
		s.logger.Debug("Skipping serial port", zap.String("port", port.Name))
		return nil
	}

	address := port.Name
	if s.config.BaudRate > 0 && s.config.BaudRate != transport.DefaultSerialBaudRate {
		address = fmt.Sprintf("%s@%d", port.Name, s.config.BaudRate)
	}

	device := &discovery.DiscoveredDevice{
		Address:       address,
		TransportType: transport.TransportSerial,
		DisplayName:   portDisplayName(port, vendorName),
		Identifiers:   map[string]string{},
	}
	if port.IsUSB {
		device.Identifiers["vid"] = strings.ToUpper(port.VID)
		device.Identifiers["pid"] = strings.ToUpper(port.PID)
		if port.SerialNumber != "" {
			device.Identifiers["serial_number"] = port.SerialNumber
		}
	}

	s.logger.Debug("Found serial candidate",
		zap.String("port", port.Name),
		zap.String("vid", port.VID),
		zap.String("pid", port.PID),
	)
	return device
}

// matchesPattern checks the port name against the configured prefixes
func (s *Scanner) matchesPattern(name string) bool {
	for _, pattern := range s.config.PortPatterns {
		if strings.HasPrefix(name, pattern) {
			return true
		}
	}
	return false
}

func portDisplayName(port *enumerator.PortDetails, vendorName string) string {
	if vendorName != "" {
		return fmt.Sprintf("%s adapter (%s)", vendorName, port.Name)
	}
	return "Serial adapter (" + port.Name + ")"
}

// defaultPortPatterns returns the OS-specific device name prefixes that
// USB-serial adapters enumerate under.
func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"COM"}
	case "darwin":
		return []string{"/dev/tty.usbserial", "/dev/cu.usbserial", "/dev/tty.SLAB", "/dev/cu.SLAB"}
	default:
		return []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/rfcomm"}
	}
}
