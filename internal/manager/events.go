// internal/manager/events.go
package manager

import (
	"time"

	"github.com/google/uuid"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/detect"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// EventType labels a manager event for routing to WebSocket topics.
type EventType string

const (
	EventConnected          EventType = "CONNECTED"
	EventDisconnected       EventType = "DISCONNECTED"
	EventReconnected        EventType = "RECONNECTED"
	EventStateChanged       EventType = "STATE_CHANGED"
	EventDetectionProgress  EventType = "DETECTION_PROGRESS"
	EventDetectionCompleted EventType = "DETECTION_COMPLETED"
)

// Event is one observable manager occurrence. State transitions of the
// active connection are forwarded as STATE_CHANGED; detection stages as
// DETECTION_PROGRESS.
type Event struct {
	Type          EventType                  `json:"type"`
	Address       string                     `json:"address,omitempty"`
	TransportType transport.TransportType    `json:"transport_type,omitempty"`
	State         *transport.ConnectionState `json:"state,omitempty"`
	Detection     *detect.ProgressEvent      `json:"detection,omitempty"`
	Data          map[string]interface{}     `json:"data,omitempty"`
	Timestamp     time.Time                  `json:"timestamp"`
}

// Subscribe returns a channel of manager events and the function releasing
// the subscription. Slow subscribers miss events rather than block the
// manager.
func (m *ScannerManager) Subscribe() (<-chan Event, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := uuid.New().String()
	ch := make(chan Event, 32)
	m.subs[id] = ch

	unsubscribe := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

func (m *ScannerManager) publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	m.subMu.Lock()
	for _, sub := range m.subs {
		select {
		case sub <- ev:
		default:
		}
	}
	m.subMu.Unlock()
}
