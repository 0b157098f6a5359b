// internal/transport/connection_test.go
package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConnectionConfigValidate pins the config guard rails.
func TestConnectionConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("every transport preset is valid", func(t *testing.T) {
		t.Parallel()
		for _, transport := range SupportedTransports() {
			assert.NoError(t, DefaultConfig(transport).Validate(), "preset for %s", transport)
		}
	})

	mutations := []struct {
		name   string
		mutate func(*ConnectionConfig)
	}{
		{"zero connect timeout", func(c *ConnectionConfig) { c.ConnectTimeout = 0 }},
		{"zero read timeout", func(c *ConnectionConfig) { c.ReadTimeout = 0 }},
		{"zero write timeout", func(c *ConnectionConfig) { c.WriteTimeout = 0 }},
		{"zero buffer size", func(c *ConnectionConfig) { c.BufferSize = 0 }},
		{"negative reconnect attempts", func(c *ConnectionConfig) { c.MaxReconnectAttempts = -1 }},
		{"negative base delay", func(c *ConnectionConfig) { c.ReconnectBaseDelay = -time.Second }},
		{"negative keep-alive", func(c *ConnectionConfig) { c.KeepAliveInterval = -time.Second }},
	}
	for _, tt := range mutations {
		tt := tt
		t.Run(tt.name+" rejected", func(t *testing.T) {
			t.Parallel()
			cfg := WiFiConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeConfigurationInvalid))
		})
	}
}

// TestTransportPresets checks the medium-specific tuning survives edits.
func TestTransportPresets(t *testing.T) {
	t.Parallel()

	t.Run("bluetooth allows slow handshakes and keeps the link warm", func(t *testing.T) {
		t.Parallel()
		cfg := BluetoothConfig()
		assert.Equal(t, 15*time.Second, cfg.ConnectTimeout)
		assert.True(t, cfg.AutoReconnect)
		assert.Greater(t, cfg.KeepAliveInterval, time.Duration(0))
	})

	t.Run("wifi uses the socket adapter payload size", func(t *testing.T) {
		t.Parallel()
		cfg := WiFiConfig()
		assert.Equal(t, 512, cfg.BufferSize)
		assert.True(t, cfg.AutoReconnect)
	})

	t.Run("serial flushes writes and skips keep-alive", func(t *testing.T) {
		t.Parallel()
		cfg := SerialConfig()
		assert.True(t, cfg.FlushAfterWrite)
		assert.Zero(t, cfg.KeepAliveInterval)
		assert.False(t, cfg.AutoReconnect)
	})

	t.Run("j2534 buffer matches the pass-thru payload bound", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 4128, J2534Config().BufferSize)
	})

	t.Run("unknown transport falls back to wifi", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, WiFiConfig(), DefaultConfig(TransportType("zigbee")))
	})
}

// TestSupportedTransports pins the automatic connection preference order.
func TestSupportedTransports(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		[]TransportType{TransportBluetooth, TransportWiFi, TransportSerial, TransportJ2534},
		SupportedTransports())
}
