// pkg/obd/commands.go
package obd

import "strings"

// ELM327-style adapter commands. Commands are ASCII, terminated by a
// carriage return; the adapter signals readiness with a '>' prompt.
const (
	CmdReset            = "ATZ"
	CmdEchoOff          = "ATE0"
	CmdHeadersOn        = "ATH1"
	CmdLinefeedsOff     = "ATL0"
	CmdSpacesOff        = "ATS0"
	CmdAdaptiveTiming   = "ATAT1"
	CmdProtocolAuto     = "ATSP0"
	CmdProtocolClose    = "ATPC"
	CmdDescribeProtocol = "ATDP"
	CmdIdentify         = "ATI"
	CmdReadVoltage      = "ATRV"

	// ProbeCommand requests the mode 01 PID 00 bitmap (supported PIDs);
	// any ECU that speaks the selected protocol answers it.
	ProbeCommand = "0100"

	CommandTerminator = "\r"
	PromptTerminator  = ">"
)

// InitSequence returns the adapter setup commands sent immediately after a
// physical connect, in order: echo off, headers on, linefeeds off, spaces
// off, adaptive timing, automatic protocol.
func InitSequence() []string {
	return []string{
		CmdEchoOff,
		CmdHeadersOn,
		CmdLinefeedsOff,
		CmdSpacesOff,
		CmdAdaptiveTiming,
		CmdProtocolAuto,
	}
}

// SetProtocolCommand returns the ATSP command selecting the given protocol.
func SetProtocolCommand(p Protocol) string {
	return "ATSP" + p.Code()
}

// errorMarkers are adapter responses indicating the current protocol could
// not reach the vehicle or the command was rejected.
var errorMarkers = []string{
	"UNABLE TO CONNECT",
	"BUS INIT",
	"BUS ERROR",
	"CAN ERROR",
	"DATA ERROR",
	"FB ERROR",
	"NO DATA",
	"STOPPED",
	"ERR",
	"?",
}

// IsErrorResponse reports whether an adapter response indicates failure.
func IsErrorResponse(response string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(response))
	if normalized == "" {
		return true
	}
	for _, marker := range errorMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

// IsPositiveProbe reports whether a response to ProbeCommand confirms a
// live protocol: a mode 01 positive reply (41 00 ...) somewhere in the
// payload, tolerating echoes, headers, and "SEARCHING..." preambles.
func IsPositiveProbe(response string) bool {
	if IsErrorResponse(response) {
		return false
	}
	normalized := strings.ToUpper(response)
	normalized = strings.NewReplacer(" ", "", "\r", "", "\n", "", ">", "").Replace(normalized)
	return strings.Contains(normalized, "4100")
}

// CleanResponse strips echoes of the sent command, prompt characters, and
// surrounding whitespace from a raw adapter response.
func CleanResponse(command, response string) string {
	cleaned := strings.ReplaceAll(response, PromptTerminator, "")
	cleaned = strings.TrimSpace(cleaned)
	if command != "" {
		cleaned = strings.TrimPrefix(cleaned, command)
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
