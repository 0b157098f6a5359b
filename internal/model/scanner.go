// internal/model/scanner.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// ConnectionSettings stores transport tuning for a saved scanner as a JSON
// text column.
type ConnectionSettings transport.ConnectionConfig

func (s *ConnectionSettings) Scan(value interface{}) error {
	if value == nil {
		*s = ConnectionSettings{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("cannot scan %T into ConnectionSettings", value)
		}
	}
	return json.Unmarshal(bytes, s)
}

func (s ConnectionSettings) Value() (driver.Value, error) {
	if s == (ConnectionSettings{}) {
		return nil, nil
	}
	return json.Marshal(s)
}

// VehicleHint stores the vehicle details attached to a saved scanner as a
// JSON text column. The detection engine uses it to order protocol attempts.
type VehicleHint obd.VehicleInfo

func (v *VehicleHint) Scan(value interface{}) error {
	if value == nil {
		*v = VehicleHint{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("cannot scan %T into VehicleHint", value)
		}
	}
	return json.Unmarshal(bytes, v)
}

func (v VehicleHint) Value() (driver.Value, error) {
	if v == (VehicleHint{}) {
		return nil, nil
	}
	return json.Marshal(v)
}

// StringList stores a list of strings as a JSON text column
type StringList []string

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("cannot scan %T into StringList", value)
		}
	}
	return json.Unmarshal(bytes, l)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// ScannerProfile is a saved scan-tool adapter: how to reach it and what the
// operator told us about the vehicle behind it.
type ScannerProfile struct {
	ID                uuid.UUID               `json:"id" db:"id"`
	Name              string                  `json:"name" db:"name"`
	TransportType     transport.TransportType `json:"transport_type" db:"transport_type"`
	Address           string                  `json:"address" db:"address"`
	Settings          ConnectionSettings      `json:"settings,omitempty" db:"settings"`
	Vehicle           VehicleHint             `json:"vehicle,omitempty" db:"vehicle"`
	PreferredProtocol *obd.Protocol           `json:"preferred_protocol,omitempty" db:"preferred_protocol"`
	AutoConnect       bool                    `json:"auto_connect" db:"auto_connect"`
	CreatedAt         time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at" db:"updated_at"`
}

// HasSettings reports whether the profile carries transport overrides.
func (p *ScannerProfile) HasSettings() bool {
	return p.Settings != (ConnectionSettings{})
}

// VehicleInfo returns the vehicle hint in the detection engine's shape, or
// nil when the profile carries none.
func (p *ScannerProfile) VehicleInfo() *obd.VehicleInfo {
	if p.Vehicle == (VehicleHint{}) {
		return nil
	}
	info := obd.VehicleInfo(p.Vehicle)
	return &info
}

// DetectionRecord is one protocol-detection outcome kept for history and
// for seeding future detections on the same adapter.
type DetectionRecord struct {
	ID             uuid.UUID               `json:"id" db:"id"`
	Address        string                  `json:"address" db:"address"`
	TransportType  transport.TransportType `json:"transport_type" db:"transport_type"`
	Protocol       obd.Protocol            `json:"protocol" db:"protocol"`
	ProtocolName   string                  `json:"protocol_name" db:"protocol_name"`
	Confidence     float64                 `json:"confidence" db:"confidence"`
	DurationMS     int64                   `json:"duration_ms" db:"duration_ms"`
	Success        bool                    `json:"success" db:"success"`
	FallbackUsed   bool                    `json:"fallback_used" db:"fallback_used"`
	ProtocolsTried StringList              `json:"protocols_tried,omitempty" db:"protocols_tried"`
	ErrorMessage   *string                 `json:"error_message,omitempty" db:"error_message"`
	VehicleMake    *string                 `json:"vehicle_make,omitempty" db:"vehicle_make"`
	VehicleYear    *int                    `json:"vehicle_year,omitempty" db:"vehicle_year"`
	DetectedAt     time.Time               `json:"detected_at" db:"detected_at"`
}
