// pkg/j2534/j2534.go
//
// SAE J2534-1 pass-thru vocabulary: protocol identifiers, return codes,
// filter types, connect/transmit flags, and the message layout exchanged
// with pass-thru interfaces.
package j2534

import "fmt"

// ProtocolID selects the vehicle-side channel protocol on PassThruConnect.
type ProtocolID uint32

const (
	ProtocolJ1850VPW   ProtocolID = 1
	ProtocolJ1850PWM   ProtocolID = 2
	ProtocolISO9141    ProtocolID = 3
	ProtocolISO14230   ProtocolID = 4
	ProtocolCAN        ProtocolID = 5
	ProtocolISO15765   ProtocolID = 6
	ProtocolSCIAEngine ProtocolID = 7
	ProtocolSCIATrans  ProtocolID = 8
	ProtocolSCIBEngine ProtocolID = 9
	ProtocolSCIBTrans  ProtocolID = 10
)

// String returns the J2534 protocol mnemonic.
func (p ProtocolID) String() string {
	switch p {
	case ProtocolJ1850VPW:
		return "J1850VPW"
	case ProtocolJ1850PWM:
		return "J1850PWM"
	case ProtocolISO9141:
		return "ISO9141"
	case ProtocolISO14230:
		return "ISO14230"
	case ProtocolCAN:
		return "CAN"
	case ProtocolISO15765:
		return "ISO15765"
	case ProtocolSCIAEngine:
		return "SCI_A_ENGINE"
	case ProtocolSCIATrans:
		return "SCI_A_TRANS"
	case ProtocolSCIBEngine:
		return "SCI_B_ENGINE"
	case ProtocolSCIBTrans:
		return "SCI_B_TRANS"
	default:
		return fmt.Sprintf("PROTOCOL_%d", uint32(p))
	}
}

// ReturnCode is a pass-thru API status value.
type ReturnCode uint32

const (
	StatusNoError             ReturnCode = 0x00
	ErrNotSupported           ReturnCode = 0x01
	ErrInvalidChannelID       ReturnCode = 0x02
	ErrInvalidProtocolID      ReturnCode = 0x03
	ErrNullParameter          ReturnCode = 0x04
	ErrInvalidIoctlValue      ReturnCode = 0x05
	ErrInvalidFlags           ReturnCode = 0x06
	ErrFailed                 ReturnCode = 0x07
	ErrDeviceNotConnected     ReturnCode = 0x08
	ErrTimeout                ReturnCode = 0x09
	ErrInvalidDeviceID        ReturnCode = 0x0A
	ErrInvalidFunction        ReturnCode = 0x0B
	ErrInvalidMsg             ReturnCode = 0x0C
	ErrInvalidTimeInterval    ReturnCode = 0x0D
	ErrInvalidMsgID           ReturnCode = 0x0E
	ErrDeviceInUse            ReturnCode = 0x0F
	ErrInvalidIoctlID         ReturnCode = 0x10
	ErrBufferEmpty            ReturnCode = 0x11
	ErrBufferFull             ReturnCode = 0x12
	ErrBufferOverflow         ReturnCode = 0x13
	ErrPinInvalid             ReturnCode = 0x14
	ErrChannelInUse           ReturnCode = 0x15
	ErrMsgProtocolID          ReturnCode = 0x16
	ErrInvalidFilterID        ReturnCode = 0x17
	ErrNoFlowControl          ReturnCode = 0x18
	ErrNotUnique              ReturnCode = 0x19
	ErrInvalidBaudrate        ReturnCode = 0x1A
	ErrInvalidDeviceState     ReturnCode = 0x1B
	ErrInvalidTransmitPattern ReturnCode = 0x1C
	ErrInsufficientMemory     ReturnCode = 0x1D
)

// IsError reports whether the code indicates failure.
func (c ReturnCode) IsError() bool { return c != StatusNoError }

// Transient reports whether a failed operation is worth retrying on the
// same channel.
func (c ReturnCode) Transient() bool {
	switch c {
	case ErrTimeout, ErrBufferEmpty, ErrBufferFull, ErrBufferOverflow:
		return true
	}
	return false
}

// FilterType selects the PassThruStartMsgFilter behavior.
type FilterType uint32

const (
	FilterPass        FilterType = 1
	FilterBlock       FilterType = 2
	FilterFlowControl FilterType = 3
)

// Connect and transmit flags.
const (
	FlagCAN29BitID uint32 = 0x0100
	FlagCANIDBoth  uint32 = 0x0200
	FlagCANISOBRP  uint32 = 0x0400
	FlagCANHSData  uint32 = 0x0800

	FlagISO15765FramePad uint32 = 0x0040
)

// MaxDataSize is the payload capacity of a pass-thru message.
const MaxDataSize = 4128

// Standard channel baud rates.
const (
	BaudCAN500K  = 500000
	BaudCAN250K  = 250000
	BaudISO9141  = 10400
	BaudJ1850VPW = 10416
	BaudJ1850PWM = 41600
)

// Message mirrors the PASSTHRU_MSG structure exchanged with pass-thru
// interfaces.
type Message struct {
	ProtocolID     ProtocolID `json:"protocol_id"`
	RxStatus       uint32     `json:"rx_status"`
	TxFlags        uint32     `json:"tx_flags"`
	Timestamp      uint32     `json:"timestamp"`
	ExtraDataIndex uint32     `json:"extra_data_index"`
	Data           []byte     `json:"data"`
}

// NewMessage builds a transmit message for the given channel protocol,
// bounding the payload at MaxDataSize.
func NewMessage(protocol ProtocolID, txFlags uint32, data []byte) Message {
	if len(data) > MaxDataSize {
		data = data[:MaxDataSize]
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	return Message{
		ProtocolID: protocol,
		TxFlags:    txFlags,
		Data:       payload,
	}
}

// SConfig is a single channel configuration parameter.
type SConfig struct {
	Parameter uint32 `json:"parameter"`
	Value     uint32 `json:"value"`
}

// Common SConfig parameter identifiers.
const (
	ParamDataRate    uint32 = 0x01
	ParamLoopback    uint32 = 0x03
	ParamP1Max       uint32 = 0x07
	ParamP3Min       uint32 = 0x0A
	ParamP4Min       uint32 = 0x0C
	ParamW1          uint32 = 0x0E
	ParamW5          uint32 = 0x12
	ParamTIdle       uint32 = 0x13
	ParamTInit       uint32 = 0x14
	ParamISO15765BS  uint32 = 0x1E
	ParamISO15765STM uint32 = 0x1F
)

// DefaultBaudRate returns the conventional baud rate for a channel protocol.
func DefaultBaudRate(p ProtocolID) uint32 {
	switch p {
	case ProtocolCAN, ProtocolISO15765:
		return BaudCAN500K
	case ProtocolISO9141, ProtocolISO14230:
		return BaudISO9141
	case ProtocolJ1850VPW:
		return BaudJ1850VPW
	case ProtocolJ1850PWM:
		return BaudJ1850PWM
	default:
		return BaudCAN500K
	}
}
