// internal/transport/bluetooth.go
package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	dbus "github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	bluezService        = "org.bluez"
	profileIface        = "org.bluez.Profile1"
	profileManagerIface = "org.bluez.ProfileManager1"
	deviceIface         = "org.bluez.Device1"
	objManagerIface     = "org.freedesktop.DBus.ObjectManager"
	propsIface          = "org.freedesktop.DBus.Properties"

	// sppUUID is the Serial Port Profile UUID; every classic Bluetooth
	// OBD adapter exposes its command channel through it.
	sppUUID = "00001101-0000-1000-8000-00805f9b34fb"
)

var profilePathCounter uint64

// BluetoothDialer connects to classic Bluetooth adapters through BlueZ
// over the system D-Bus. It registers a client-side SPP profile once and
// receives the RFCOMM socket descriptor through Profile1.NewConnection.
type BluetoothDialer struct {
	logger *zap.Logger

	mu          sync.Mutex
	bus         *dbus.Conn
	prof        *sppProfile
	profilePath dbus.ObjectPath
	registered  bool
}

// NewBluetoothDialer creates a BlueZ-backed dialer. The D-Bus connection
// is established lazily on the first dial.
func NewBluetoothDialer(logger *zap.Logger) *BluetoothDialer {
	return &BluetoothDialer{logger: logger.With(zap.String("dialer", "bluetooth"))}
}

func (d *BluetoothDialer) TransportType() TransportType { return TransportBluetooth }

// sppProfile implements org.bluez.Profile1 and hands the RFCOMM fd to the
// dial in flight.
type sppProfile struct {
	mu     sync.Mutex
	waiter chan connectResult
}

type connectResult struct {
	fd  int
	dev dbus.ObjectPath
}

func (p *sppProfile) Release() *dbus.Error                      { return nil }
func (p *sppProfile) Cancel() *dbus.Error                       { return nil }
func (p *sppProfile) RequestDisconnection(dbus.ObjectPath) *dbus.Error { return nil }

// NewConnection is invoked by BlueZ with the connected socket. Without a
// waiting dial the descriptor is closed immediately so it cannot leak.
func (p *sppProfile) NewConnection(dev dbus.ObjectPath, fd dbus.UnixFD, _ map[string]dbus.Variant) *dbus.Error {
	p.mu.Lock()
	waiter := p.waiter
	p.mu.Unlock()

	if waiter != nil {
		select {
		case waiter <- connectResult{fd: int(fd), dev: dev}:
			return nil
		default:
		}
	}
	_ = os.NewFile(uintptr(fd), "rfcomm").Close()
	return &dbus.Error{Name: "org.bluez.Error.Rejected", Body: []interface{}{"no pending connection"}}
}

func (p *sppProfile) arm() chan connectResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiter = make(chan connectResult, 1)
	return p.waiter
}

func (p *sppProfile) disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiter = nil
}

// ensureRegistered connects the private system bus and registers the SPP
// client profile once.
func (d *BluetoothDialer) ensureRegistered() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.registered {
		return nil
	}

	if d.bus == nil {
		bus, err := dbus.ConnectSystemBus()
		if err != nil {
			return fmt.Errorf("failed to connect system bus: %w", err)
		}
		d.bus = bus
	}

	d.prof = &sppProfile{}
	id := atomic.AddUint64(&profilePathCounter, 1)
	d.profilePath = dbus.ObjectPath("/com/spacetec/scanner/profile/p" + strconv.FormatUint(id, 10))

	if err := d.bus.Export(d.prof, d.profilePath, profileIface); err != nil {
		return fmt.Errorf("failed to export SPP profile: %w", err)
	}

	opts := map[string]dbus.Variant{
		"Role": dbus.MakeVariant("client"),
	}
	pm := d.bus.Object(bluezService, dbus.ObjectPath("/org/bluez"))
	if call := pm.Call(profileManagerIface+".RegisterProfile", 0, d.profilePath, sppUUID, opts); call.Err != nil {
		return fmt.Errorf("failed to register SPP profile: %w", call.Err)
	}

	d.registered = true
	return nil
}

// Close unregisters the profile and drops the bus connection.
func (d *BluetoothDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bus == nil {
		return nil
	}
	if d.registered {
		pm := d.bus.Object(bluezService, dbus.ObjectPath("/org/bluez"))
		_ = pm.Call(profileManagerIface+".UnregisterProfile", 0, d.profilePath).Err
		_ = d.bus.Export(nil, d.profilePath, profileIface)
		d.registered = false
	}
	err := d.bus.Close()
	d.bus = nil
	return err
}

// Dial connects to the adapter with the given MAC address.
func (d *BluetoothDialer) Dial(ctx context.Context, address string, config ConnectionConfig) (Link, *ConnectionInfo, error) {
	mac, err := normalizeMAC(address)
	if err != nil {
		return nil, nil, err
	}

	if err := d.ensureRegistered(); err != nil {
		return nil, nil, err
	}

	d.mu.Lock()
	bus := d.bus
	prof := d.prof
	d.mu.Unlock()

	devPath, err := d.resolveDevicePath(bus, mac)
	if err != nil {
		return nil, nil, err
	}

	d.logger.Debug("Connecting RFCOMM profile",
		zap.String("mac", mac),
		zap.String("device_path", string(devPath)))

	devObj := bus.Object(bluezService, devPath)
	d.ensurePaired(devObj)

	waiter := prof.arm()
	defer prof.disarm()

	if call := devObj.CallWithContext(ctx, deviceIface+".ConnectProfile", 0, sppUUID); call.Err != nil {
		return nil, nil, fmt.Errorf("failed to connect SPP profile on %s: %w", mac, call.Err)
	}

	select {
	case res := <-waiter:
		file := os.NewFile(uintptr(res.fd), "rfcomm:"+mac)
		info := &ConnectionInfo{
			RemoteAddress:  mac,
			SignalStrength: d.readRSSI(devObj),
		}
		return &bluetoothLink{File: file, bus: bus, devPath: devPath}, info, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// resolveDevicePath locates the BlueZ object whose Address matches the
// MAC, falling back to the conventional hci0 path for devices paired out
// of band.
func (d *BluetoothDialer) resolveDevicePath(bus *dbus.Conn, mac string) (dbus.ObjectPath, error) {
	obj := bus.Object(bluezService, dbus.ObjectPath("/"))
	var objs map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if call := obj.Call(objManagerIface+".GetManagedObjects", 0); call.Err != nil {
		return "", fmt.Errorf("failed to enumerate BlueZ objects: %w", call.Err)
	} else if err := call.Store(&objs); err != nil {
		return "", fmt.Errorf("failed to decode BlueZ objects: %w", err)
	}

	for path, ifaces := range objs {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if v, ok := props["Address"]; ok {
			if addr, _ := v.Value().(string); strings.EqualFold(addr, mac) {
				return path, nil
			}
		}
	}

	fallback := "/org/bluez/hci0/dev_" + strings.ReplaceAll(mac, ":", "_")
	d.logger.Debug("Device not in managed objects, using conventional path",
		zap.String("path", fallback))
	return dbus.ObjectPath(fallback), nil
}

// ensurePaired pairs the device when BlueZ reports it unpaired. Failures
// are left to ConnectProfile, which gives the authoritative error.
func (d *BluetoothDialer) ensurePaired(devObj dbus.BusObject) {
	call := devObj.Call(propsIface+".Get", 0, deviceIface, "Paired")
	if call.Err != nil {
		return
	}
	var paired dbus.Variant
	if err := call.Store(&paired); err != nil {
		return
	}
	if b, ok := paired.Value().(bool); ok && !b {
		d.logger.Info("Device not paired, initiating pairing")
		if err := devObj.Call(deviceIface+".Pair", 0).Err; err != nil {
			d.logger.Warn("Pairing failed", zap.Error(err))
		}
	}
}

// readRSSI fetches the device RSSI when BlueZ has one; absent for most
// already-connected devices.
func (d *BluetoothDialer) readRSSI(devObj dbus.BusObject) *int {
	call := devObj.Call(propsIface+".Get", 0, deviceIface, "RSSI")
	if call.Err != nil {
		return nil
	}
	var v dbus.Variant
	if err := call.Store(&v); err != nil {
		return nil
	}
	if rssi, ok := v.Value().(int16); ok {
		val := int(rssi)
		return &val
	}
	return nil
}

// bluetoothLink wraps the RFCOMM socket file. Closing also asks BlueZ to
// drop the profile connection so the adapter returns to advertising.
type bluetoothLink struct {
	*os.File
	bus     *dbus.Conn
	devPath dbus.ObjectPath

	closeOnce sync.Once
	closeErr  error
}

func (l *bluetoothLink) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.File.Close()
		obj := l.bus.Object(bluezService, l.devPath)
		_ = obj.Call(deviceIface+".DisconnectProfile", 0, sppUUID).Err
	})
	return l.closeErr
}

// normalizeMAC validates and upper-cases a Bluetooth device address.
func normalizeMAC(address string) (string, error) {
	hw, err := net.ParseMAC(address)
	if err != nil || len(hw) != 6 {
		return "", &Error{
			Code:    CodeConfigurationInvalid,
			Message: fmt.Sprintf("invalid address %q: expected a Bluetooth MAC like AA:BB:CC:11:22:33", address),
			Address: address,
			Err:     err,
		}
	}
	return strings.ToUpper(hw.String()), nil
}

// NewBluetoothConnection builds a ready-to-connect Bluetooth scanner
// connection.
func NewBluetoothConnection(logger *zap.Logger) ScannerConnection {
	return NewConnection(NewBluetoothDialer(logger), logger)
}
