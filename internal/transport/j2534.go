// internal/transport/j2534.go
package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/pkg/j2534"
)

// j2534AddressPrefix marks pass-thru device addresses:
// "j2534:0403:6001" or "j2534:0403:6001:6" with an explicit protocol ID.
const j2534AddressPrefix = "j2534:"

// J2534Dialer opens PassThru (SAE J2534) interfaces over USB bulk
// endpoints.
type J2534Dialer struct {
	logger *zap.Logger
}

// NewJ2534Dialer creates a dialer for J2534 pass-thru devices.
func NewJ2534Dialer(logger *zap.Logger) *J2534Dialer {
	return &J2534Dialer{logger: logger.With(zap.String("dialer", "j2534"))}
}

func (d *J2534Dialer) TransportType() TransportType { return TransportJ2534 }

// Dial claims the device's default interface and binds its first bulk
// endpoint pair.
func (d *J2534Dialer) Dial(ctx context.Context, address string, config ConnectionConfig) (Link, *ConnectionInfo, error) {
	vendorID, productID, proto, err := ParseJ2534Address(address)
	if err != nil {
		return nil, nil, err
	}

	d.logger.Debug("Opening pass-thru device",
		zap.String("vendor_id", fmt.Sprintf("%04x", vendorID)),
		zap.String("product_id", fmt.Sprintf("%04x", productID)),
		zap.String("channel_protocol", proto.String()))

	type openResult struct {
		link *j2534Link
		err  error
	}
	done := make(chan openResult, 1)
	go func() {
		link, err := openPassThru(d.logger, vendorID, productID, proto)
		done <- openResult{link, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, nil, res.err
		}
		info := &ConnectionInfo{
			RemoteAddress: address,
			MTU:           j2534.MaxDataSize,
		}
		return res.link, info, nil
	case <-ctx.Done():
		go func() {
			if res := <-done; res.err == nil {
				res.link.Close()
			}
		}()
		return nil, nil, ctx.Err()
	}
}

func openPassThru(logger *zap.Logger, vendorID, productID uint16, proto j2534.ProtocolID) (*j2534Link, error) {
	usbCtx := gousb.NewContext()

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(vendorID) && desc.Product == gousb.ID(productID)
	})
	if err != nil {
		usbCtx.Close()
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if len(devices) == 0 {
		usbCtx.Close()
		return nil, &Error{
			Code:    CodeConnectionFailure,
			Message: fmt.Sprintf("pass-thru device not found (VID: %04X, PID: %04X)", vendorID, productID),
		}
	}
	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		logger.Warn("Multiple matching pass-thru devices found, using first one")
	}
	device := devices[0]

	intf, release, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	var inEndpt *gousb.InEndpoint
	var outEndpt *gousb.OutEndpoint
	for _, desc := range intf.Setting.Endpoints {
		if desc.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if desc.Direction == gousb.EndpointDirectionIn && inEndpt == nil {
			inEndpt, err = intf.InEndpoint(desc.Number)
		} else if desc.Direction == gousb.EndpointDirectionOut && outEndpt == nil {
			outEndpt, err = intf.OutEndpoint(desc.Number)
		}
		if err != nil {
			break
		}
	}
	if err == nil && (inEndpt == nil || outEndpt == nil) {
		err = fmt.Errorf("device exposes no bulk endpoint pair")
	}
	if err != nil {
		release()
		device.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to bind endpoints: %w", err)
	}

	return &j2534Link{
		usbCtx:   usbCtx,
		device:   device,
		release:  release,
		inEndpt:  inEndpt,
		outEndpt: outEndpt,
		proto:    proto,
	}, nil
}

// j2534Link carries the USB handles that must be torn down together.
type j2534Link struct {
	usbCtx   *gousb.Context
	device   *gousb.Device
	release  func()
	inEndpt  *gousb.InEndpoint
	outEndpt *gousb.OutEndpoint
	proto    j2534.ProtocolID

	closeOnce sync.Once
	closeErr  error
}

// Protocol reports the pass-thru channel protocol from the address.
func (l *j2534Link) Protocol() j2534.ProtocolID { return l.proto }

func (l *j2534Link) Read(p []byte) (int, error)  { return l.inEndpt.Read(p) }
func (l *j2534Link) Write(p []byte) (int, error) { return l.outEndpt.Write(p) }

func (l *j2534Link) Close() error {
	l.closeOnce.Do(func() {
		l.release()
		l.closeErr = l.device.Close()
		l.usbCtx.Close()
	})
	return l.closeErr
}

// ParseJ2534Address splits "j2534:VID:PID[:protocolID]" into its parts.
// VID and PID are hex; the protocol ID defaults to ISO15765 (CAN with ISO
// transport), the channel every post-2008 vehicle supports.
func ParseJ2534Address(address string) (vendorID, productID uint16, proto j2534.ProtocolID, err error) {
	if !strings.HasPrefix(address, j2534AddressPrefix) {
		return 0, 0, 0, &Error{
			Code:    CodeConfigurationInvalid,
			Message: fmt.Sprintf("invalid address %q: expected j2534:VID:PID", address),
			Address: address,
		}
	}

	parts := strings.Split(strings.TrimPrefix(address, j2534AddressPrefix), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, &Error{
			Code:    CodeConfigurationInvalid,
			Message: fmt.Sprintf("invalid address %q: expected j2534:VID:PID or j2534:VID:PID:protocol", address),
			Address: address,
		}
	}

	vid, err := parseHexID(parts[0])
	if err != nil {
		return 0, 0, 0, &Error{
			Code:    CodeConfigurationInvalid,
			Message: fmt.Sprintf("invalid vendor ID %q", parts[0]),
			Address: address,
			Err:     err,
		}
	}
	pid, err := parseHexID(parts[1])
	if err != nil {
		return 0, 0, 0, &Error{
			Code:    CodeConfigurationInvalid,
			Message: fmt.Sprintf("invalid product ID %q", parts[1]),
			Address: address,
			Err:     err,
		}
	}

	proto = j2534.ProtocolISO15765
	if len(parts) == 3 {
		id, convErr := strconv.ParseUint(parts[2], 10, 32)
		if convErr != nil {
			return 0, 0, 0, &Error{
				Code:    CodeConfigurationInvalid,
				Message: fmt.Sprintf("invalid protocol ID %q", parts[2]),
				Address: address,
				Err:     convErr,
			}
		}
		proto = j2534.ProtocolID(id)
	}
	return vid, pid, proto, nil
}

// parseHexID parses a 16-bit hex identifier, with or without 0x prefix.
func parseHexID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	id, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}

// NewJ2534Connection builds a ready-to-connect pass-thru scanner
// connection.
func NewJ2534Connection(logger *zap.Logger) ScannerConnection {
	return NewConnection(NewJ2534Dialer(logger), logger)
}
