// internal/transport/wifi.go
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

const tcpKeepAlivePeriod = 30 * time.Second

// WiFiDialer dials WiFi OBD adapters (typically ELM327 clones listening on
// 192.168.0.10:35000) over plain TCP.
type WiFiDialer struct {
	logger *zap.Logger
}

// NewWiFiDialer creates a TCP dialer for network adapters.
func NewWiFiDialer(logger *zap.Logger) *WiFiDialer {
	return &WiFiDialer{logger: logger.With(zap.String("dialer", "wifi"))}
}

func (d *WiFiDialer) TransportType() TransportType { return TransportWiFi }

// Dial connects to a host:port address. The context carries the connect
// deadline set by the caller.
func (d *WiFiDialer) Dial(ctx context.Context, address string, config ConnectionConfig) (Link, *ConnectionInfo, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, nil, &Error{
			Code:        CodeConfigurationInvalid,
			Message:     fmt.Sprintf("invalid address %q: expected host:port", address),
			Address:     address,
			Recoverable: false,
			Err:         err,
		}
	}
	if host == "" || port == "" {
		return nil, nil, &Error{
			Code:    CodeConfigurationInvalid,
			Message: "invalid address: host and port are required",
			Address: address,
		}
	}

	d.logger.Debug("Dialing TCP adapter", zap.String("address", address))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			d.logger.Warn("Failed to enable TCP keep-alive", zap.Error(err))
		}
		if err := tcpConn.SetKeepAlivePeriod(tcpKeepAlivePeriod); err != nil {
			d.logger.Warn("Failed to set TCP keep-alive period", zap.Error(err))
		}
		if err := tcpConn.SetNoDelay(true); err != nil {
			d.logger.Warn("Failed to disable Nagle buffering", zap.Error(err))
		}
	}

	info := &ConnectionInfo{
		RemoteAddress: conn.RemoteAddr().String(),
		LocalAddress:  conn.LocalAddr().String(),
	}
	return conn, info, nil
}

// NewWiFiConnection builds a ready-to-connect WiFi scanner connection.
func NewWiFiConnection(logger *zap.Logger) ScannerConnection {
	return NewConnection(NewWiFiDialer(logger), logger)
}
