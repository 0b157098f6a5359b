// internal/transport/connection.go
package transport

import (
	"context"
	"fmt"
	"io"
	"time"
)

// TransportType identifies the physical link used to reach a scan-tool
// adapter.
type TransportType string

const (
	TransportBluetooth TransportType = "bluetooth"
	TransportWiFi      TransportType = "wifi"
	TransportSerial    TransportType = "serial"
	TransportJ2534     TransportType = "j2534"
)

// SupportedTransports returns every transport type in the automatic
// connection preference order.
func SupportedTransports() []TransportType {
	return []TransportType{TransportBluetooth, TransportWiFi, TransportSerial, TransportJ2534}
}

// ScannerConnection is the uniform command/response contract every
// transport implements. All blocking operations honor their context and an
// explicit deadline; no call blocks operations on other connections.
type ScannerConnection interface {
	// Connect establishes the physical link, bounded by the config's
	// connect timeout. Returns the recorded ConnectionInfo on success.
	// Connecting an already-connected instance is a no-op returning the
	// existing info.
	Connect(ctx context.Context, address string, config ConnectionConfig) (*ConnectionInfo, error)

	// Disconnect tears the link down and moves the state machine to
	// Disconnected. A graceful disconnect gives the read pump a moment to
	// drain; an ungraceful one closes immediately.
	Disconnect(graceful bool) error

	// Reconnect re-establishes the last connected address with
	// exponential backoff, up to the configured attempt limit.
	Reconnect(ctx context.Context) (*ConnectionInfo, error)

	// Write sends raw bytes, bounded by the write timeout.
	Write(ctx context.Context, data []byte) (int, error)

	// Read returns the next available chunk, waiting up to timeout
	// (the configured read timeout when zero).
	Read(ctx context.Context, timeout time.Duration) ([]byte, error)

	// ReadUntil accumulates bytes until the terminator appears or the
	// deadline passes. Bytes after the terminator are kept for the next
	// read. On deadline with data accumulated, the partial data is
	// returned with Partial set instead of an error.
	ReadUntil(ctx context.Context, terminator string, timeout time.Duration) (ReadResult, error)

	// SendCommand writes an AT-style command (carriage-return framed) and
	// reads the response up to the terminator.
	SendCommand(ctx context.Context, command string, timeout time.Duration, terminator string) (ReadResult, error)

	// ClearBuffers discards any buffered inbound data.
	ClearBuffers()

	// Available reports how many inbound bytes are buffered.
	Available() int

	// Statistics returns a point-in-time snapshot of the I/O counters.
	Statistics() StatisticsSnapshot

	// State returns the current state; States subscribes to transitions.
	// The returned cancel func must be called to release the subscription.
	State() ConnectionState
	States() (<-chan ConnectionState, func())

	IsConnected() bool
	ID() string
	TransportType() TransportType
	LastAddress() string

	// Release force-disconnects and permanently retires the connection.
	// Safe to call multiple times; only the first call does any work.
	Release() error
}

// Link is the raw byte stream a Dialer hands over once the physical
// transport is established. The owning connection is its only reader and
// writer.
type Link interface {
	io.ReadWriteCloser
}

// Flusher is implemented by links that buffer writes.
type Flusher interface {
	Flush() error
}

// Dialer establishes the physical transport for one address family.
type Dialer interface {
	// Dial opens the link and reports the link-level connection details
	// (remote/local address, MTU, signal strength where the medium knows
	// it). The engine stamps transport type and timestamp.
	Dial(ctx context.Context, address string, config ConnectionConfig) (Link, *ConnectionInfo, error)
	TransportType() TransportType
}

// ConnectionInfo is an immutable snapshot captured at a successful connect.
type ConnectionInfo struct {
	RemoteAddress  string        `json:"remote_address"`
	LocalAddress   string        `json:"local_address,omitempty"`
	MTU            int           `json:"mtu"`
	SignalStrength *int          `json:"signal_strength,omitempty"`
	TransportType  TransportType `json:"transport_type"`
	ConnectedAt    time.Time     `json:"connected_at"`
}

// ConnectionConfig bundles the tunables supplied at connect time.
type ConnectionConfig struct {
	ConnectTimeout       time.Duration `json:"connect_timeout"`
	ReadTimeout          time.Duration `json:"read_timeout"`
	WriteTimeout         time.Duration `json:"write_timeout"`
	AutoReconnect        bool          `json:"auto_reconnect"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`
	ReconnectBaseDelay   time.Duration `json:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `json:"reconnect_max_delay"`
	BufferSize           int           `json:"buffer_size"`
	KeepAliveInterval    time.Duration `json:"keep_alive_interval"`
	FlushAfterWrite      bool          `json:"flush_after_write"`
}

// BluetoothConfig returns the defaults for Bluetooth classic (RFCOMM/SPP)
// adapters: slow handshakes, regular keep-alives to hold the link open.
func BluetoothConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:       15 * time.Second,
		ReadTimeout:          5 * time.Second,
		WriteTimeout:         2 * time.Second,
		AutoReconnect:        true,
		MaxReconnectAttempts: 3,
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		BufferSize:           1024,
		KeepAliveInterval:    30 * time.Second,
		FlushAfterWrite:      false,
	}
}

// WiFiConfig returns the defaults for WiFi socket adapters.
func WiFiConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:       10 * time.Second,
		ReadTimeout:          5 * time.Second,
		WriteTimeout:         5 * time.Second,
		AutoReconnect:        true,
		MaxReconnectAttempts: 3,
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		BufferSize:           512,
		KeepAliveInterval:    20 * time.Second,
		FlushAfterWrite:      false,
	}
}

// SerialConfig returns the defaults for USB-serial adapters. Wired links
// need no keep-alive.
func SerialConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:       5 * time.Second,
		ReadTimeout:          3 * time.Second,
		WriteTimeout:         2 * time.Second,
		AutoReconnect:        false,
		MaxReconnectAttempts: 2,
		ReconnectBaseDelay:   500 * time.Millisecond,
		ReconnectMaxDelay:    10 * time.Second,
		BufferSize:           4096,
		KeepAliveInterval:    0,
		FlushAfterWrite:      true,
	}
}

// J2534Config returns the defaults for J2534 pass-thru interfaces. The
// buffer matches the pass-thru message payload bound.
func J2534Config() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:       5 * time.Second,
		ReadTimeout:          2 * time.Second,
		WriteTimeout:         2 * time.Second,
		AutoReconnect:        false,
		MaxReconnectAttempts: 2,
		ReconnectBaseDelay:   500 * time.Millisecond,
		ReconnectMaxDelay:    10 * time.Second,
		BufferSize:           4128,
		KeepAliveInterval:    0,
		FlushAfterWrite:      false,
	}
}

// DefaultConfig returns the preset for a transport type.
func DefaultConfig(t TransportType) ConnectionConfig {
	switch t {
	case TransportBluetooth:
		return BluetoothConfig()
	case TransportWiFi:
		return WiFiConfig()
	case TransportSerial:
		return SerialConfig()
	case TransportJ2534:
		return J2534Config()
	default:
		return WiFiConfig()
	}
}

// Validate rejects configs the connection engine cannot run with.
func (c ConnectionConfig) Validate() error {
	if c.ConnectTimeout <= 0 {
		return &Error{Code: CodeConfigurationInvalid, Message: "connect timeout must be positive"}
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return &Error{Code: CodeConfigurationInvalid, Message: "read and write timeouts must be positive"}
	}
	if c.BufferSize <= 0 {
		return &Error{Code: CodeConfigurationInvalid, Message: fmt.Sprintf("buffer size must be positive, got %d", c.BufferSize)}
	}
	if c.MaxReconnectAttempts < 0 {
		return &Error{Code: CodeConfigurationInvalid, Message: "max reconnect attempts cannot be negative"}
	}
	if c.ReconnectBaseDelay < 0 || c.ReconnectMaxDelay < 0 {
		return &Error{Code: CodeConfigurationInvalid, Message: "reconnect delays cannot be negative"}
	}
	if c.KeepAliveInterval < 0 {
		return &Error{Code: CodeConfigurationInvalid, Message: "keep-alive interval cannot be negative"}
	}
	return nil
}

// ReadResult carries response data together with an explicit marker for
// responses cut short by a deadline.
type ReadResult struct {
	Data    string `json:"data"`
	Partial bool   `json:"partial"`
}
