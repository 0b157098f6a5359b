// internal/transport/factory_test.go
package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/pkg/j2534"
)

// TestInferTransportType pins address-shape inference.
func TestInferTransportType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    TransportType
		wantErr bool
	}{
		{"AA:BB:CC:11:22:33", TransportBluetooth, false},
		{"aa:bb:cc:dd:ee:ff", TransportBluetooth, false},
		{"192.168.0.10:35000", TransportWiFi, false},
		{"obd.local:9000", TransportWiFi, false},
		{"/dev/ttyUSB0", TransportSerial, false},
		{"/dev/ttyUSB0@115200", TransportSerial, false},
		{"/dev/rfcomm0", TransportSerial, false},
		{"COM3", TransportSerial, false},
		{"com4@9600", TransportSerial, false},
		{"j2534:0403:6001", TransportJ2534, false},
		{"j2534:0403:6001:6", TransportJ2534, false},
		{"", "", true},
		{"   ", "", true},
		{"just-a-hostname", "", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			got, err := InferTransportType(tt.address)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsCode(err, CodeConfigurationInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNewForTransport checks the dispatch table covers every transport.
func TestNewForTransport(t *testing.T) {
	t.Parallel()

	logger := zap.NewNop()
	for _, transport := range SupportedTransports() {
		transport := transport
		t.Run(string(transport), func(t *testing.T) {
			t.Parallel()
			c, err := NewForTransport(transport, logger)
			require.NoError(t, err)
			assert.Equal(t, transport, c.TransportType())
			assert.NotEmpty(t, c.ID())
			assert.NoError(t, c.Release())
		})
	}

	t.Run("unknown transport is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewForTransport(TransportType("carrier-pigeon"), logger)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeConfigurationInvalid))
	})
}

// TestParseSerialAddress covers the path@baud form.
func TestParseSerialAddress(t *testing.T) {
	t.Parallel()

	t.Run("defaults to the ELM factory baud rate", func(t *testing.T) {
		t.Parallel()
		path, baud, err := ParseSerialAddress("/dev/ttyUSB0")
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB0", path)
		assert.Equal(t, DefaultSerialBaudRate, baud)
	})

	t.Run("honours an explicit baud rate", func(t *testing.T) {
		t.Parallel()
		path, baud, err := ParseSerialAddress("COM3@115200")
		require.NoError(t, err)
		assert.Equal(t, "COM3", path)
		assert.Equal(t, 115200, baud)
	})

	t.Run("rejects malformed baud rates", func(t *testing.T) {
		t.Parallel()
		for _, address := range []string{"/dev/ttyUSB0@fast", "/dev/ttyUSB0@-1", "/dev/ttyUSB0@"} {
			_, _, err := ParseSerialAddress(address)
			assert.Error(t, err, "address %q", address)
		}
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		t.Parallel()
		_, _, err := ParseSerialAddress("@38400")
		require.Error(t, err)
	})
}

// TestParseJ2534Address covers the pass-thru address form.
func TestParseJ2534Address(t *testing.T) {
	t.Parallel()

	t.Run("defaults the channel protocol to ISO15765", func(t *testing.T) {
		t.Parallel()
		vid, pid, proto, err := ParseJ2534Address("j2534:0403:6001")
		require.NoError(t, err)
		assert.Equal(t, uint16(0x0403), vid)
		assert.Equal(t, uint16(0x6001), pid)
		assert.Equal(t, j2534.ProtocolISO15765, proto)
	})

	t.Run("accepts an explicit channel protocol", func(t *testing.T) {
		t.Parallel()
		_, _, proto, err := ParseJ2534Address("j2534:0403:6001:4")
		require.NoError(t, err)
		assert.Equal(t, j2534.ISO14230, proto)
	})

	t.Run("accepts 0x-prefixed identifiers", func(t *testing.T) {
		t.Parallel()
		vid, pid, _, err := ParseJ2534Address("j2534:0x0403:0x6001")
		require.NoError(t, err)
		assert.Equal(t, uint16(0x0403), vid)
		assert.Equal(t, uint16(0x6001), pid)
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		t.Parallel()
		for _, address := range []string{
			"0403:6001",
			"j2534:0403",
			"j2534:zzzz:6001",
			"j2534:0403:zzzz",
			"j2534:0403:6001:can",
			"j2534:0403:6001:6:extra",
		} {
			_, _, _, err := ParseJ2534Address(address)
			assert.Error(t, err, "address %q", address)
		}
	})
}
