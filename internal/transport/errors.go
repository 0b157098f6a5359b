// internal/transport/errors.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// FailureCode classifies every error crossing the component boundary.
type FailureCode string

const (
	CodeConnectionFailure    FailureCode = "CONNECTION_FAILURE"
	CodeProtocolFailure      FailureCode = "PROTOCOL_FAILURE"
	CodeCommunicationFailure FailureCode = "COMMUNICATION_FAILURE"
	CodeTimeoutFailure       FailureCode = "TIMEOUT_FAILURE"
	CodeResourceExhausted    FailureCode = "RESOURCE_EXHAUSTED"
	CodeConfigurationInvalid FailureCode = "CONFIGURATION_INVALID"
)

// Error is the structured failure surfaced by the communication core. It
// carries enough context to diagnose the root cause without logs.
type Error struct {
	Code           FailureCode   `json:"code"`
	Message        string        `json:"message"`
	Address        string        `json:"address,omitempty"`
	Elapsed        time.Duration `json:"elapsed,omitempty"`
	Attempts       int           `json:"attempts,omitempty"`
	ProtocolsTried []string      `json:"protocols_tried,omitempty"`
	Recoverable    bool          `json:"recoverable"`
	Err            error         `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Address != "" {
		fmt.Fprintf(&b, " (address=%s", e.Address)
		if e.Elapsed > 0 {
			fmt.Fprintf(&b, ", elapsed=%s", e.Elapsed)
		}
		if e.Attempts > 0 {
			fmt.Fprintf(&b, ", attempts=%d", e.Attempts)
		}
		b.WriteString(")")
	} else if e.Elapsed > 0 {
		fmt.Fprintf(&b, " (elapsed=%s)", e.Elapsed)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the failure code, or empty when err is not a core error.
func CodeOf(err error) FailureCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode reports whether err carries the given failure code.
func IsCode(err error, code FailureCode) bool {
	return CodeOf(err) == code
}

// IsRecoverable reports whether automatic reconnection is worth attempting
// for err. Core errors carry the flag; anything else is classified.
func IsRecoverable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Recoverable
	}
	return Categorize(err)
}

// Transient failure indicators: the link may come back.
var recoverableHints = []string{
	"timeout",
	"timed out",
	"connection lost",
	"network unreachable",
	"connection reset",
	"broken pipe",
}

// Configuration or identity problems: retrying cannot help.
var permanentHints = []string{
	"invalid address",
	"not found",
	"no such",
	"permission denied",
	"authentication",
}

// Categorize classifies an underlying error as recoverable (true) or not.
// Timeouts and transient communication failures are recoverable;
// configuration and identity problems are not. Unknown errors fail closed
// as non-recoverable.
func Categorize(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range permanentHints {
		if strings.Contains(msg, hint) {
			return false
		}
	}
	for _, hint := range recoverableHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// timeoutError builds the standard deadline failure for an operation.
func timeoutError(op, address string, elapsed time.Duration) *Error {
	return &Error{
		Code:        CodeTimeoutFailure,
		Message:     op + " deadline exceeded",
		Address:     address,
		Elapsed:     elapsed,
		Recoverable: true,
	}
}
