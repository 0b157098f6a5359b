// internal/transport/state.go
package transport

import "fmt"

// StateKind enumerates the connection state machine.
type StateKind int

const (
	KindDisconnected StateKind = iota
	KindConnecting
	KindConnected
	KindReconnecting
	KindFailed
)

// String returns the state kind name used in logs and the event stream.
func (k StateKind) String() string {
	switch k {
	case KindDisconnected:
		return "disconnected"
	case KindConnecting:
		return "connecting"
	case KindConnected:
		return "connected"
	case KindReconnecting:
		return "reconnecting"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// MarshalText makes the kind serialize as its name.
func (k StateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ConnectionState is the tagged state of a connection. Exactly one state
// is active at a time; payload fields are populated per kind.
type ConnectionState struct {
	Kind StateKind `json:"kind"`

	// Connected
	Info *ConnectionInfo `json:"info,omitempty"`

	// Reconnecting
	Attempt     int `json:"attempt,omitempty"`
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Failed
	Cause        string `json:"cause,omitempty"`
	Recoverable  bool   `json:"recoverable,omitempty"`
	AttemptCount int    `json:"attempt_count,omitempty"`
}

// StateDisconnected is the initial and terminal idle state.
func StateDisconnected() ConnectionState {
	return ConnectionState{Kind: KindDisconnected}
}

// StateConnecting marks an in-flight connect attempt.
func StateConnecting() ConnectionState {
	return ConnectionState{Kind: KindConnecting}
}

// StateConnected carries the info snapshot captured at connect.
func StateConnected(info *ConnectionInfo) ConnectionState {
	return ConnectionState{Kind: KindConnected, Info: info}
}

// StateReconnecting marks automatic reconnection attempt n of max.
func StateReconnecting(attempt, maxAttempts int) ConnectionState {
	return ConnectionState{Kind: KindReconnecting, Attempt: attempt, MaxAttempts: maxAttempts}
}

// StateFailed records a terminal or recoverable failure.
func StateFailed(cause string, recoverable bool, attemptCount int) ConnectionState {
	return ConnectionState{Kind: KindFailed, Cause: cause, Recoverable: recoverable, AttemptCount: attemptCount}
}

// String renders the state with its payload for logs.
func (s ConnectionState) String() string {
	switch s.Kind {
	case KindConnected:
		if s.Info != nil {
			return fmt.Sprintf("connected(%s)", s.Info.RemoteAddress)
		}
		return "connected"
	case KindReconnecting:
		return fmt.Sprintf("reconnecting(%d/%d)", s.Attempt, s.MaxAttempts)
	case KindFailed:
		return fmt.Sprintf("failed(recoverable=%t, cause=%s)", s.Recoverable, s.Cause)
	default:
		return s.Kind.String()
	}
}
