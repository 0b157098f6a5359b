// internal/detect/events.go
package detect

import (
	"time"

	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// Stage identifies a point in the detection run.
type Stage string

const (
	StageStarted          Stage = "STARTED"
	StageTestingProtocol  Stage = "TESTING_PROTOCOL"
	StageProtocolTested   Stage = "PROTOCOL_TESTED"
	StageFallbackStrategy Stage = "FALLBACK_STRATEGY"
	StageDetected         Stage = "DETECTED"
	StageFailed           Stage = "FAILED"
	StageCancelled        Stage = "CANCELLED"
)

// ProgressEvent describes one detection step. Events are delivered
// synchronously and in order to the OnProgress callback.
type ProgressEvent struct {
	Stage     Stage        `json:"stage"`
	Protocol  obd.Protocol `json:"protocol,omitempty"`
	Success   bool         `json:"success,omitempty"`
	Strategy  string       `json:"strategy,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
