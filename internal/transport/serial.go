// internal/transport/serial.go
package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultSerialBaudRate is the ELM327 factory default.
const DefaultSerialBaudRate = 38400

// SerialDialer opens USB serial (FTDI/CH340) OBD adapters. Addresses take
// the form "/dev/ttyUSB0" or "COM3", with an optional "@115200" baud rate
// suffix.
type SerialDialer struct {
	logger *zap.Logger
}

// NewSerialDialer creates a dialer for serial port adapters.
func NewSerialDialer(logger *zap.Logger) *SerialDialer {
	return &SerialDialer{logger: logger.With(zap.String("dialer", "serial"))}
}

func (d *SerialDialer) TransportType() TransportType { return TransportSerial }

// Dial opens the port in 8N1 mode, the only framing OBD adapters use.
func (d *SerialDialer) Dial(ctx context.Context, address string, config ConnectionConfig) (Link, *ConnectionInfo, error) {
	path, baudRate, err := ParseSerialAddress(address)
	if err != nil {
		return nil, nil, err
	}

	d.logger.Debug("Opening serial port",
		zap.String("port", path),
		zap.Int("baud_rate", baudRate))

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	type openResult struct {
		port serial.Port
		err  error
	}
	done := make(chan openResult, 1)
	go func() {
		port, err := serial.Open(path, mode)
		done <- openResult{port, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, nil, fmt.Errorf("failed to open serial port %s: %w", path, res.err)
		}
		if err := res.port.SetReadTimeout(config.ReadTimeout); err != nil {
			res.port.Close()
			return nil, nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
		info := &ConnectionInfo{RemoteAddress: address}
		return &serialLink{Port: res.port}, info, nil
	case <-ctx.Done():
		// The open finishes in the background and the port is closed to
		// avoid holding the device.
		go func() {
			if res := <-done; res.err == nil {
				res.port.Close()
			}
		}()
		return nil, nil, ctx.Err()
	}
}

// serialLink adapts serial.Port to the Link contract and exposes Drain as
// the flush hook.
type serialLink struct {
	serial.Port
}

func (l *serialLink) Flush() error { return l.Port.Drain() }

// ParseSerialAddress splits "path@baud" into its parts, defaulting the
// baud rate when the suffix is absent.
func ParseSerialAddress(address string) (path string, baudRate int, err error) {
	path = address
	baudRate = DefaultSerialBaudRate

	if at := strings.LastIndex(address, "@"); at >= 0 {
		path = address[:at]
		rate, convErr := strconv.Atoi(address[at+1:])
		if convErr != nil || rate <= 0 {
			return "", 0, &Error{
				Code:    CodeConfigurationInvalid,
				Message: fmt.Sprintf("invalid baud rate in address %q", address),
				Address: address,
			}
		}
		baudRate = rate
	}
	if path == "" {
		return "", 0, &Error{
			Code:    CodeConfigurationInvalid,
			Message: "serial port path is required",
			Address: address,
		}
	}
	return path, baudRate, nil
}

// NewSerialConnection builds a ready-to-connect serial scanner connection.
func NewSerialConnection(logger *zap.Logger) ScannerConnection {
	return NewConnection(NewSerialDialer(logger), logger)
}
