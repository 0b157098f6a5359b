// internal/transport/factory.go
package transport

import (
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"
)

// NewForTransport creates an unconnected scanner connection for the given
// transport type.
func NewForTransport(t TransportType, logger *zap.Logger) (ScannerConnection, error) {
	switch t {
	case TransportBluetooth:
		return NewBluetoothConnection(logger), nil
	case TransportWiFi:
		return NewWiFiConnection(logger), nil
	case TransportSerial:
		return NewSerialConnection(logger), nil
	case TransportJ2534:
		return NewJ2534Connection(logger), nil
	default:
		return nil, &Error{
			Code:    CodeConfigurationInvalid,
			Message: fmt.Sprintf("unsupported transport type: %s", t),
		}
	}
}

// InferTransportType guesses the transport from the address shape:
// MAC addresses are Bluetooth, host:port pairs are WiFi, device paths are
// serial ports, and the j2534: prefix marks pass-thru devices.
func InferTransportType(address string) (TransportType, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", &Error{
			Code:    CodeConfigurationInvalid,
			Message: "address is required",
		}
	}

	if strings.HasPrefix(trimmed, j2534AddressPrefix) {
		return TransportJ2534, nil
	}
	if hw, err := net.ParseMAC(trimmed); err == nil && len(hw) == 6 {
		return TransportBluetooth, nil
	}
	if strings.HasPrefix(trimmed, "/dev/") || strings.HasPrefix(strings.ToUpper(trimmed), "COM") {
		return TransportSerial, nil
	}
	if host, port, err := net.SplitHostPort(trimmed); err == nil && host != "" && port != "" {
		return TransportWiFi, nil
	}

	return "", &Error{
		Code:    CodeConfigurationInvalid,
		Message: fmt.Sprintf("cannot infer transport type from address %q", address),
		Address: address,
	}
}
