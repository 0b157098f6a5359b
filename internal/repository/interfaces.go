// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/model"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// ErrNotFound is wrapped by lookups that matched no row.
var ErrNotFound = errors.New("not found")

// ProfileRepository defines saved-scanner data access operations.
// Profile names are unique; Save is the create-or-replace entry point the
// REST config surface uses.
type ProfileRepository interface {
	// CRUD operations
	Create(ctx context.Context, profile *model.ScannerProfile) error
	Save(ctx context.Context, profile *model.ScannerProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ScannerProfile, error)
	GetByName(ctx context.Context, name string) (*model.ScannerProfile, error)
	GetByAddress(ctx context.Context, transportType transport.TransportType, address string) (*model.ScannerProfile, error)
	Update(ctx context.Context, profile *model.ScannerProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByName(ctx context.Context, name string) error

	// Listing
	List(ctx context.Context) ([]*model.ScannerProfile, error)
	ListAutoConnect(ctx context.Context) ([]*model.ScannerProfile, error)
}

// DetectionRepository defines detection history data access operations
type DetectionRepository interface {
	// Recording
	Record(ctx context.Context, record *model.DetectionRecord) error

	// Listing and lookup
	List(ctx context.Context, filter *DetectionFilter) ([]*model.DetectionRecord, int, error)
	ListByAddress(ctx context.Context, address string, limit int) ([]*model.DetectionRecord, error)
	LastKnownProtocol(ctx context.Context, address string) (obd.Protocol, error)

	// Analytics and cleanup
	Stats(ctx context.Context, address *string) (*DetectionStats, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// DetectionFilter represents detection history listing filters
type DetectionFilter struct {
	Address       *string                  `json:"address,omitempty"`
	TransportType *transport.TransportType `json:"transport_type,omitempty"`
	Success       *bool                    `json:"success,omitempty"`
	StartDate     *time.Time               `json:"start_date,omitempty"`
	EndDate       *time.Time               `json:"end_date,omitempty"`
	Page          int                      `json:"page"`
	PerPage       int                      `json:"per_page"`
}

// DetectionStats represents detection history statistics
type DetectionStats struct {
	TotalDetections int            `json:"total_detections"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	AvgDurationMS   float64        `json:"average_duration_ms"`
	AvgConfidence   float64        `json:"average_confidence"`
	ByProtocol      map[string]int `json:"by_protocol"`
	ByTransport     map[string]int `json:"by_transport"`
}
