// internal/resource/alerts.go
package resource

import "time"

// AlertType classifies resource alerts.
type AlertType string

const (
	AlertLimitExceeded              AlertType = "LIMIT_EXCEEDED"
	AlertApproachingLimit           AlertType = "APPROACHING_LIMIT"
	AlertHighMemoryUsage            AlertType = "HIGH_MEMORY_USAGE"
	AlertPotentialLeak              AlertType = "POTENTIAL_LEAK"
	AlertAbandonedConnection        AlertType = "ABANDONED_CONNECTION"
	AlertAbandonedConnectionCleaned AlertType = "ABANDONED_CONNECTION_CLEANED"
)

// Alert is one resource event, delivered to subscribers and kept in the
// bounded history.
type Alert struct {
	Type         AlertType `json:"type"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}
