// internal/discovery/bluetooth/scanner.go
package bluetooth

import (
	"context"
	"fmt"
	"strings"
	"time"

	dbus "github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

const (
	bluezService    = "org.bluez"
	adapterIface    = "org.bluez.Adapter1"
	deviceIface     = "org.bluez.Device1"
	objManagerIface = "org.freedesktop.DBus.ObjectManager"

	// Serial Port Profile: the service every classic Bluetooth OBD
	// adapter advertises its command channel under.
	sppUUID = "00001101-0000-1000-8000-00805f9b34fb"
)

// nameHints matches adapters that hide the SPP UUID until paired.
var nameHints = []string{"OBD", "ELM", "VGATE", "VIECAR", "VLINK", "KONNWEI", "ICAR"}

// Scanner discovers classic Bluetooth OBD adapters through BlueZ
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for Bluetooth scanner
type Config struct {
	Adapter    string        `json:"adapter"`
	ScanWindow time.Duration `json:"scan_window"`
}

// NewScanner creates a new Bluetooth scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if config.Adapter == "" {
		config.Adapter = "hci0"
	}
	if config.ScanWindow <= 0 {
		config.ScanWindow = 12 * time.Second
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "bluetooth")),
		config: config,
	}
}

// TransportType returns the transport this scanner covers
func (s *Scanner) TransportType() transport.TransportType {
	return transport.TransportBluetooth
}

// IsAvailable checks whether BlueZ is reachable on the system bus
func (s *Scanner) IsAvailable() bool {
	bus, err := dbus.ConnectSystemBus()
	if err != nil {
		return false
	}
	defer bus.Close()

	var owner string
	err = bus.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, bluezService).Store(&owner)
	return err == nil && owner != ""
}

// Scan runs one BlueZ discovery window and returns adapters that either
// advertise the SPP service or carry a known OBD adapter name.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	s.logger.Info("Starting Bluetooth scan", zap.Duration("window", s.config.ScanWindow))

	bus, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect system bus: %w", err)
	}
	defer bus.Close()

	adapterPath := dbus.ObjectPath("/org/bluez/" + s.config.Adapter)
	adapter := bus.Object(bluezService, adapterPath)

	if call := adapter.CallWithContext(ctx, adapterIface+".StartDiscovery", 0); call.Err != nil {
		// InProgress means another client already scans; piggyback on it
		if !strings.Contains(call.Err.Error(), "InProgress") {
			return nil, fmt.Errorf("failed to start discovery on %s: %w", s.config.Adapter, call.Err)
		}
	} else {
		defer func() {
			if err := adapter.Call(adapterIface+".StopDiscovery", 0).Err; err != nil {
				s.logger.Debug("Failed to stop discovery", zap.Error(err))
			}
		}()
	}

	select {
	case <-time.After(s.config.ScanWindow):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	devices, err := s.collectDevices(bus)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bluetooth scan completed", zap.Int("devices_found", len(devices)))
	return devices, nil
}

// collectDevices walks the BlueZ object tree for discovered devices
func (s *Scanner) collectDevices(bus *dbus.Conn) ([]*discovery.DiscoveredDevice, error) {
	root := bus.Object(bluezService, dbus.ObjectPath("/"))
	var objs map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := root.Call(objManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("failed to enumerate BlueZ objects: %w", call.Err)
	}
	if err := call.Store(&objs); err != nil {
		return nil, fmt.Errorf("failed to decode BlueZ objects: %w", err)
	}

	var discovered []*discovery.DiscoveredDevice
	for _, ifaces := range objs {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}

		address := stringProp(props, "Address")
		if address == "" {
			continue
		}
		name := stringProp(props, "Name")
		if name == "" {
			name = stringProp(props, "Alias")
		}

		if !s.looksLikeOBDAdapter(props, name) {
			continue
		}

		device := &discovery.DiscoveredDevice{
			Address:       address,
			TransportType: transport.TransportBluetooth,
			DisplayName:   displayName(name, address),
			Identifiers:   map[string]string{},
		}
		if rssi, ok := props["RSSI"]; ok {
			if v, ok := rssi.Value().(int16); ok {
				strength := int(v)
				device.SignalStrength = &strength
			}
		}
		if paired, ok := props["Paired"]; ok {
			if v, ok := paired.Value().(bool); ok {
				device.Identifiers["paired"] = fmt.Sprintf("%t", v)
			}
		}

		s.logger.Debug("Found Bluetooth adapter",
			zap.String("address", address),
			zap.String("name", name))
		discovered = append(discovered, device)
	}

	return discovered, nil
}

// looksLikeOBDAdapter accepts devices advertising SPP or named like an
// OBD dongle.
func (s *Scanner) looksLikeOBDAdapter(props map[string]dbus.Variant, name string) bool {
	if uuids, ok := props["UUIDs"]; ok {
		if list, ok := uuids.Value().([]string); ok {
			for _, u := range list {
				if strings.EqualFold(u, sppUUID) {
					return true
				}
			}
		}
	}

	upper := strings.ToUpper(name)
	for _, hint := range nameHints {
		if strings.Contains(upper, hint) {
			return true
		}
	}
	return false
}

func stringProp(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		if str, ok := v.Value().(string); ok {
			return str
		}
	}
	return ""
}

func displayName(name, address string) string {
	if name != "" {
		return name
	}
	return "Bluetooth adapter " + address
}
