// internal/discovery/discovery.go
// Package discovery finds reachable scan-tool adapters across the supported
// transports. Each transport contributes a Scanner; the Service fans scans
// out, deduplicates, and orders candidates by connection preference.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// Scanner probes one transport for adapters - Strategy Pattern
type Scanner interface {
	Scan(ctx context.Context) ([]*DiscoveredDevice, error)
	TransportType() transport.TransportType
	IsAvailable() bool
}

// DiscoveredDevice represents a reachable scan-tool adapter
type DiscoveredDevice struct {
	Address        string                  `json:"address"`
	TransportType  transport.TransportType `json:"transport_type"`
	DisplayName    string                  `json:"display_name"`
	SignalStrength *int                    `json:"signal_strength,omitempty"`
	Identifiers    map[string]string       `json:"identifiers,omitempty"`
}

// Config bounds a full discovery pass
type Config struct {
	ScanTimeout   time.Duration
	MaxConcurrent int
}

// DefaultConfig returns the discovery defaults
func DefaultConfig() Config {
	return Config{
		ScanTimeout:   30 * time.Second,
		MaxConcurrent: 4,
	}
}

// Service manages all transport scanners - Facade Pattern
type Service struct {
	config Config
	logger *zap.Logger

	mu       sync.RWMutex
	scanners map[transport.TransportType]Scanner
}

// NewService creates a new discovery service
func NewService(config Config, logger *zap.Logger) *Service {
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = DefaultConfig().ScanTimeout
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Service{
		config:   config,
		logger:   logger.With(zap.String("component", "discovery")),
		scanners: make(map[transport.TransportType]Scanner),
	}
}

// RegisterScanner registers a transport scanner
func (s *Service) RegisterScanner(scanner Scanner) {
	s.mu.Lock()
	s.scanners[scanner.TransportType()] = scanner
	s.mu.Unlock()
	s.logger.Info("Scanner registered", zap.String("transport", string(scanner.TransportType())))
}

// ScanAll runs every available scanner concurrently and returns the merged
// candidate list ordered by connection preference. Individual scanner
// failures are logged and skipped so one dead subsystem cannot hide the
// others' results.
func (s *Service) ScanAll(ctx context.Context) ([]*DiscoveredDevice, error) {
	s.mu.RLock()
	available := make([]Scanner, 0, len(s.scanners))
	for _, scanner := range s.scanners {
		if scanner.IsAvailable() {
			available = append(available, scanner)
		} else {
			s.logger.Debug("Scanner not available, skipping",
				zap.String("transport", string(scanner.TransportType())))
		}
	}
	s.mu.RUnlock()

	if len(available) == 0 {
		return []*DiscoveredDevice{}, nil
	}

	type scanResult struct {
		transport transport.TransportType
		devices   []*DiscoveredDevice
		err       error
	}

	sem := make(chan struct{}, s.config.MaxConcurrent)
	results := make(chan scanResult, len(available))

	for _, scanner := range available {
		go func(sc Scanner) {
			sem <- struct{}{}
			defer func() { <-sem }()

			scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
			defer cancel()

			devices, err := sc.Scan(scanCtx)
			results <- scanResult{transport: sc.TransportType(), devices: devices, err: err}
		}(scanner)
	}

	var all []*DiscoveredDevice
	for i := 0; i < len(available); i++ {
		select {
		case result := <-results:
			if result.err != nil {
				s.logger.Error("Scanner failed",
					zap.String("transport", string(result.transport)),
					zap.Error(result.err))
				continue
			}
			all = append(all, result.devices...)
			s.logger.Info("Scanner completed",
				zap.String("transport", string(result.transport)),
				zap.Int("devices_found", len(result.devices)))
		case <-ctx.Done():
			return sortDevices(dedupe(all)), ctx.Err()
		}
	}

	return sortDevices(dedupe(all)), nil
}

// ScanTransport runs the scanner for one transport
func (s *Service) ScanTransport(ctx context.Context, t transport.TransportType) ([]*DiscoveredDevice, error) {
	s.mu.RLock()
	scanner, exists := s.scanners[t]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no scanner registered for transport: %s", t)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available for transport: %s", t)
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	devices, err := scanner.Scan(scanCtx)
	if err != nil {
		return nil, err
	}
	return sortDevices(dedupe(devices)), nil
}

// AvailableTransports returns the transports whose scanners can run now
func (s *Service) AvailableTransports() []transport.TransportType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	available := []transport.TransportType{}
	for t, scanner := range s.scanners {
		if scanner.IsAvailable() {
			available = append(available, t)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		return transportRank(available[i]) < transportRank(available[j])
	})
	return available
}

// dedupe drops repeated transport+address pairs, keeping the first seen
func dedupe(devices []*DiscoveredDevice) []*DiscoveredDevice {
	seen := make(map[string]bool)
	unique := make([]*DiscoveredDevice, 0, len(devices))
	for _, device := range devices {
		key := string(device.TransportType) + ":" + device.Address
		if !seen[key] {
			seen[key] = true
			unique = append(unique, device)
		}
	}
	return unique
}

// sortDevices orders candidates the way ConnectAuto tries them: transport
// preference first, then strongest signal, then address for stability.
func sortDevices(devices []*DiscoveredDevice) []*DiscoveredDevice {
	sort.SliceStable(devices, func(i, j int) bool {
		ri, rj := transportRank(devices[i].TransportType), transportRank(devices[j].TransportType)
		if ri != rj {
			return ri < rj
		}
		si, sj := signalValue(devices[i]), signalValue(devices[j])
		if si != sj {
			return si > sj
		}
		return devices[i].Address < devices[j].Address
	})
	return devices
}

func transportRank(t transport.TransportType) int {
	switch t {
	case transport.TransportBluetooth:
		return 0
	case transport.TransportWiFi:
		return 1
	case transport.TransportSerial:
		return 2
	case transport.TransportJ2534:
		return 3
	default:
		return 4
	}
}

// signalValue treats missing RSSI as weaker than any reported one
func signalValue(d *DiscoveredDevice) int {
	if d.SignalStrength == nil {
		return -1 << 30
	}
	return *d.SignalStrength
}
