// internal/discovery/discovery_test.go
package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

type fakeScanner struct {
	transportType transport.TransportType
	devices       []*DiscoveredDevice
	err           error
	unavailable   bool
	delay         time.Duration
	calls         atomic.Int32
}

func (f *fakeScanner) Scan(ctx context.Context) ([]*DiscoveredDevice, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.devices, f.err
}

func (f *fakeScanner) TransportType() transport.TransportType { return f.transportType }
func (f *fakeScanner) IsAvailable() bool                      { return !f.unavailable }

func device(t transport.TransportType, address string, rssi *int) *DiscoveredDevice {
	return &DiscoveredDevice{
		Address:        address,
		TransportType:  t,
		DisplayName:    "adapter " + address,
		SignalStrength: rssi,
	}
}

func intPtr(v int) *int { return &v }

func testService(t *testing.T, scanners ...Scanner) *Service {
	t.Helper()
	svc := NewService(Config{ScanTimeout: time.Second, MaxConcurrent: 4}, zap.NewNop())
	for _, sc := range scanners {
		svc.RegisterScanner(sc)
	}
	return svc
}

func TestScanAllMergesAndOrders(t *testing.T) {
	t.Parallel()

	bt := &fakeScanner{
		transportType: transport.TransportBluetooth,
		devices: []*DiscoveredDevice{
			device(transport.TransportBluetooth, "AA:BB:CC:DD:EE:02", intPtr(-70)),
			device(transport.TransportBluetooth, "AA:BB:CC:DD:EE:01", intPtr(-40)),
		},
	}
	wifi := &fakeScanner{
		transportType: transport.TransportWiFi,
		devices: []*DiscoveredDevice{
			device(transport.TransportWiFi, "192.168.0.10:35000", nil),
		},
	}
	serial := &fakeScanner{
		transportType: transport.TransportSerial,
		devices: []*DiscoveredDevice{
			device(transport.TransportSerial, "/dev/ttyUSB0", nil),
		},
	}

	svc := testService(t, serial, wifi, bt)

	devices, err := svc.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 4)

	// Bluetooth first (strongest signal leading), then wifi, then serial
	assert.Equal(t, "AA:BB:CC:DD:EE:01", devices[0].Address)
	assert.Equal(t, "AA:BB:CC:DD:EE:02", devices[1].Address)
	assert.Equal(t, "192.168.0.10:35000", devices[2].Address)
	assert.Equal(t, "/dev/ttyUSB0", devices[3].Address)
}

func TestScanAllSkipsUnavailable(t *testing.T) {
	t.Parallel()

	offline := &fakeScanner{
		transportType: transport.TransportBluetooth,
		unavailable:   true,
		devices: []*DiscoveredDevice{
			device(transport.TransportBluetooth, "AA:BB:CC:DD:EE:01", nil),
		},
	}
	online := &fakeScanner{
		transportType: transport.TransportWiFi,
		devices: []*DiscoveredDevice{
			device(transport.TransportWiFi, "10.0.0.7:35000", nil),
		},
	}

	svc := testService(t, offline, online)

	devices, err := svc.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "10.0.0.7:35000", devices[0].Address)
	assert.Equal(t, int32(0), offline.calls.Load())
}

func TestScanAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	broken := &fakeScanner{
		transportType: transport.TransportBluetooth,
		err:           errors.New("hci0 vanished"),
	}
	working := &fakeScanner{
		transportType: transport.TransportSerial,
		devices: []*DiscoveredDevice{
			device(transport.TransportSerial, "/dev/ttyUSB1", nil),
		},
	}

	svc := testService(t, broken, working)

	devices, err := svc.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB1", devices[0].Address)
}

func TestScanAllPerScannerTimeout(t *testing.T) {
	t.Parallel()

	slow := &fakeScanner{
		transportType: transport.TransportWiFi,
		delay:         500 * time.Millisecond,
		devices: []*DiscoveredDevice{
			device(transport.TransportWiFi, "10.0.0.9:35000", nil),
		},
	}
	fast := &fakeScanner{
		transportType: transport.TransportSerial,
		devices: []*DiscoveredDevice{
			device(transport.TransportSerial, "/dev/ttyUSB0", nil),
		},
	}

	svc := NewService(Config{ScanTimeout: 50 * time.Millisecond, MaxConcurrent: 4}, zap.NewNop())
	svc.RegisterScanner(slow)
	svc.RegisterScanner(fast)

	devices, err := svc.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB0", devices[0].Address)
}

func TestScanAllDeduplicates(t *testing.T) {
	t.Parallel()

	sc := &fakeScanner{
		transportType: transport.TransportWiFi,
		devices: []*DiscoveredDevice{
			device(transport.TransportWiFi, "192.168.0.10:35000", nil),
			device(transport.TransportWiFi, "192.168.0.10:35000", nil),
		},
	}

	svc := testService(t, sc)

	devices, err := svc.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
}

func TestScanTransport(t *testing.T) {
	t.Parallel()

	sc := &fakeScanner{
		transportType: transport.TransportSerial,
		devices: []*DiscoveredDevice{
			device(transport.TransportSerial, "/dev/ttyACM0", nil),
		},
	}
	svc := testService(t, sc)

	devices, err := svc.ScanTransport(context.Background(), transport.TransportSerial)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	_, err = svc.ScanTransport(context.Background(), transport.TransportBluetooth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scanner registered")

	sc.unavailable = true
	_, err = svc.ScanTransport(context.Background(), transport.TransportSerial)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestAvailableTransports(t *testing.T) {
	t.Parallel()

	svc := testService(t,
		&fakeScanner{transportType: transport.TransportJ2534},
		&fakeScanner{transportType: transport.TransportBluetooth},
		&fakeScanner{transportType: transport.TransportWiFi, unavailable: true},
	)

	available := svc.AvailableTransports()
	require.Equal(t, []transport.TransportType{
		transport.TransportBluetooth,
		transport.TransportJ2534,
	}, available)
}
