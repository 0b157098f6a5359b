// pkg/obd/protocols.go
package obd

import (
	"encoding/json"
	"fmt"
)

// Protocol identifies an OBD-II diagnostic wire protocol. Numeric values
// follow the ELM327 ATSP protocol numbering.
type Protocol int

const (
	ProtocolAuto Protocol = iota
	ProtocolSAEJ1850PWM
	ProtocolSAEJ1850VPW
	ProtocolISO9141_2
	ProtocolISO14230KWP5Baud
	ProtocolISO14230KWPFast
	ProtocolISO15765CAN11Bit500K
	ProtocolISO15765CAN29Bit500K
	ProtocolISO15765CAN11Bit250K
	ProtocolISO15765CAN29Bit250K
	ProtocolSAEJ1939CAN29Bit250K
)

var protocolNames = map[Protocol]string{
	ProtocolAuto:                 "AUTO",
	ProtocolSAEJ1850PWM:          "SAE_J1850_PWM",
	ProtocolSAEJ1850VPW:          "SAE_J1850_VPW",
	ProtocolISO9141_2:            "ISO_9141_2",
	ProtocolISO14230KWP5Baud:     "ISO_14230_4_KWP_5BAUD",
	ProtocolISO14230KWPFast:      "ISO_14230_4_KWP_FAST",
	ProtocolISO15765CAN11Bit500K: "ISO_15765_4_CAN_11BIT_500K",
	ProtocolISO15765CAN29Bit500K: "ISO_15765_4_CAN_29BIT_500K",
	ProtocolISO15765CAN11Bit250K: "ISO_15765_4_CAN_11BIT_250K",
	ProtocolISO15765CAN29Bit250K: "ISO_15765_4_CAN_29BIT_250K",
	ProtocolSAEJ1939CAN29Bit250K: "SAE_J1939_CAN_29BIT_250K",
}

// String returns the canonical protocol name.
func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_PROTOCOL_%d", int(p))
}

// Code returns the single-character ELM327 protocol number used with ATSP.
func (p Protocol) Code() string {
	if p == ProtocolSAEJ1939CAN29Bit250K {
		return "A"
	}
	return fmt.Sprintf("%d", int(p))
}

// Description returns a human-readable protocol description.
func (p Protocol) Description() string {
	switch p {
	case ProtocolAuto:
		return "Automatic protocol selection"
	case ProtocolSAEJ1850PWM:
		return "SAE J1850 PWM (41.6 kbaud)"
	case ProtocolSAEJ1850VPW:
		return "SAE J1850 VPW (10.4 kbaud)"
	case ProtocolISO9141_2:
		return "ISO 9141-2 (5 baud init)"
	case ProtocolISO14230KWP5Baud:
		return "ISO 14230-4 KWP2000 (5 baud init)"
	case ProtocolISO14230KWPFast:
		return "ISO 14230-4 KWP2000 (fast init)"
	case ProtocolISO15765CAN11Bit500K:
		return "ISO 15765-4 CAN (11-bit ID, 500 kbaud)"
	case ProtocolISO15765CAN29Bit500K:
		return "ISO 15765-4 CAN (29-bit ID, 500 kbaud)"
	case ProtocolISO15765CAN11Bit250K:
		return "ISO 15765-4 CAN (11-bit ID, 250 kbaud)"
	case ProtocolISO15765CAN29Bit250K:
		return "ISO 15765-4 CAN (29-bit ID, 250 kbaud)"
	case ProtocolSAEJ1939CAN29Bit250K:
		return "SAE J1939 CAN (29-bit ID, 250 kbaud)"
	default:
		return "Unknown protocol"
	}
}

// ParseProtocol resolves a canonical protocol name back to its Protocol value.
func ParseProtocol(name string) (Protocol, error) {
	for p, n := range protocolNames {
		if n == name {
			return p, nil
		}
	}
	return ProtocolAuto, fmt.Errorf("unknown protocol name: %q", name)
}

// MarshalJSON encodes the protocol as its canonical name.
func (p Protocol) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a canonical protocol name.
func (p *Protocol) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseProtocol(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IsCAN reports whether the protocol is a CAN variant (ISO 15765-4 or J1939).
func (p Protocol) IsCAN() bool {
	switch p {
	case ProtocolISO15765CAN11Bit500K, ProtocolISO15765CAN29Bit500K,
		ProtocolISO15765CAN11Bit250K, ProtocolISO15765CAN29Bit250K,
		ProtocolSAEJ1939CAN29Bit250K:
		return true
	}
	return false
}

// Is29Bit reports whether the protocol uses 29-bit CAN identifiers.
func (p Protocol) Is29Bit() bool {
	switch p {
	case ProtocolISO15765CAN29Bit500K, ProtocolISO15765CAN29Bit250K,
		ProtocolSAEJ1939CAN29Bit250K:
		return true
	}
	return false
}

// IsKWP reports whether the protocol is an ISO 14230 KWP2000 variant.
func (p Protocol) IsKWP() bool {
	return p == ProtocolISO14230KWP5Baud || p == ProtocolISO14230KWPFast
}

// IsJ1850 reports whether the protocol is a SAE J1850 variant.
func (p Protocol) IsJ1850() bool {
	return p == ProtocolSAEJ1850PWM || p == ProtocolSAEJ1850VPW
}

// IsLegacy reports whether the protocol predates the CAN mandate.
func (p Protocol) IsLegacy() bool {
	switch p {
	case ProtocolSAEJ1850PWM, ProtocolSAEJ1850VPW, ProtocolISO9141_2,
		ProtocolISO14230KWP5Baud, ProtocolISO14230KWPFast:
		return true
	}
	return false
}

// ModernProtocols returns the CAN variants mandated for 2008+ vehicles,
// most common first.
func ModernProtocols() []Protocol {
	return []Protocol{
		ProtocolISO15765CAN11Bit500K,
		ProtocolISO15765CAN29Bit500K,
		ProtocolISO15765CAN11Bit250K,
		ProtocolISO15765CAN29Bit250K,
	}
}

// LegacyProtocols returns the pre-CAN protocols, most common first.
func LegacyProtocols() []Protocol {
	return []Protocol{
		ProtocolISO9141_2,
		ProtocolISO14230KWPFast,
		ProtocolISO14230KWP5Baud,
		ProtocolSAEJ1850VPW,
		ProtocolSAEJ1850PWM,
	}
}

// CommonProtocols returns the protocols that cover the vast majority of
// passenger vehicles on the road.
func CommonProtocols() []Protocol {
	return []Protocol{
		ProtocolISO15765CAN11Bit500K,
		ProtocolISO15765CAN29Bit500K,
		ProtocolISO9141_2,
		ProtocolISO14230KWPFast,
	}
}

// HeavyDutyProtocols returns the protocols used by trucks and commercial
// vehicles.
func HeavyDutyProtocols() []Protocol {
	return []Protocol{
		ProtocolSAEJ1939CAN29Bit250K,
		ProtocolISO15765CAN29Bit250K,
		ProtocolISO15765CAN29Bit500K,
	}
}

// AllProtocols returns every selectable protocol in the default probe order.
func AllProtocols() []Protocol {
	return []Protocol{
		ProtocolISO15765CAN11Bit500K,
		ProtocolISO15765CAN29Bit500K,
		ProtocolISO15765CAN11Bit250K,
		ProtocolISO15765CAN29Bit250K,
		ProtocolSAEJ1939CAN29Bit250K,
		ProtocolISO9141_2,
		ProtocolISO14230KWPFast,
		ProtocolISO14230KWP5Baud,
		ProtocolSAEJ1850VPW,
		ProtocolSAEJ1850PWM,
	}
}
