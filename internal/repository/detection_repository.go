// internal/repository/detection_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/database"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/model"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// detectionRepository implements DetectionRepository interface
type detectionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDetectionRepository creates a new detection history repository
func NewDetectionRepository(db *database.DB, logger *zap.Logger) DetectionRepository {
	return &detectionRepository{
		db:     db,
		logger: logger,
	}
}

const detectionColumns = `id, address, transport_type, protocol, protocol_name,
	   confidence, duration_ms, success, fallback_used, protocols_tried,
	   error_message, vehicle_make, vehicle_year, detected_at`

// Record stores one detection outcome
func (r *detectionRepository) Record(ctx context.Context, record *model.DetectionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.DetectedAt.IsZero() {
		record.DetectedAt = time.Now().UTC()
	}
	if record.ProtocolName == "" {
		record.ProtocolName = record.Protocol.String()
	}

	query := `
		INSERT INTO detection_history (
			id, address, transport_type, protocol, protocol_name,
			confidence, duration_ms, success, fallback_used, protocols_tried,
			error_message, vehicle_make, vehicle_year, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Address, record.TransportType, record.Protocol,
		record.ProtocolName, record.Confidence, record.DurationMS, record.Success,
		record.FallbackUsed, record.ProtocolsTried, record.ErrorMessage,
		record.VehicleMake, record.VehicleYear, record.DetectedAt,
	)

	if err != nil {
		r.logger.Error("Failed to record detection", zap.Error(err), zap.String("address", record.Address))
		return fmt.Errorf("failed to record detection: %w", err)
	}

	r.logger.Debug("Detection recorded",
		zap.String("address", record.Address),
		zap.String("protocol", record.ProtocolName),
		zap.Bool("success", record.Success),
	)
	return nil
}

// List retrieves detection records with filtering and pagination
func (r *detectionRepository) List(ctx context.Context, filter *DetectionFilter) ([]*model.DetectionRecord, int, error) {
	whereConditions := []string{}
	args := []interface{}{}

	if filter.Address != nil {
		whereConditions = append(whereConditions, "address = ?")
		args = append(args, *filter.Address)
	}
	if filter.TransportType != nil {
		whereConditions = append(whereConditions, "transport_type = ?")
		args = append(args, *filter.TransportType)
	}
	if filter.Success != nil {
		whereConditions = append(whereConditions, "success = ?")
		args = append(args, *filter.Success)
	}
	if filter.StartDate != nil {
		whereConditions = append(whereConditions, "detected_at >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		whereConditions = append(whereConditions, "detected_at <= ?")
		args = append(args, *filter.EndDate)
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	// Total count for pagination
	countQuery := "SELECT COUNT(*) FROM detection_history " + whereClause
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count detection records", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count detection records: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}

	query := fmt.Sprintf(`SELECT `+detectionColumns+` FROM detection_history
		%s ORDER BY detected_at DESC LIMIT ? OFFSET ?`, whereClause)
	args = append(args, perPage, (page-1)*perPage)

	records, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListByAddress retrieves the most recent detections for one adapter
func (r *detectionRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*model.DetectionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + detectionColumns + ` FROM detection_history
		WHERE address = ? ORDER BY detected_at DESC LIMIT ?`

	return r.queryRecords(ctx, query, address, limit)
}

// LastKnownProtocol returns the protocol of the most recent successful
// detection for an address. Returns ProtocolAuto when the address has no
// successful history.
func (r *detectionRepository) LastKnownProtocol(ctx context.Context, address string) (obd.Protocol, error) {
	query := `SELECT protocol FROM detection_history
		WHERE address = ? AND success = 1
		ORDER BY detected_at DESC LIMIT 1`

	var protocol obd.Protocol
	err := r.db.QueryRowContext(ctx, query, address).Scan(&protocol)
	if err != nil {
		if err == sql.ErrNoRows {
			return obd.ProtocolAuto, nil
		}
		r.logger.Error("Failed to look up last known protocol", zap.Error(err), zap.String("address", address))
		return obd.ProtocolAuto, fmt.Errorf("failed to look up last known protocol: %w", err)
	}

	return protocol, nil
}

// Stats computes detection statistics, optionally scoped to one address
func (r *detectionRepository) Stats(ctx context.Context, address *string) (*DetectionStats, error) {
	whereClause := ""
	args := []interface{}{}
	if address != nil {
		whereClause = "WHERE address = ?"
		args = append(args, *address)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
			   COALESCE(SUM(success), 0),
			   COALESCE(AVG(duration_ms), 0),
			   COALESCE(AVG(CASE WHEN success = 1 THEN confidence END), 0)
		FROM detection_history %s`, whereClause)

	stats := &DetectionStats{
		ByProtocol:  make(map[string]int),
		ByTransport: make(map[string]int),
	}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalDetections, &stats.Successful, &stats.AvgDurationMS, &stats.AvgConfidence,
	)
	if err != nil {
		r.logger.Error("Failed to compute detection stats", zap.Error(err))
		return nil, fmt.Errorf("failed to compute detection stats: %w", err)
	}
	stats.Failed = stats.TotalDetections - stats.Successful

	if err := r.groupCounts(ctx, "protocol_name", whereClause, args, stats.ByProtocol); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, "transport_type", whereClause, args, stats.ByTransport); err != nil {
		return nil, err
	}

	return stats, nil
}

// Prune removes detection records older than the cutoff
func (r *detectionRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM detection_history WHERE detected_at < ?`

	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		r.logger.Error("Failed to prune detection history", zap.Error(err))
		return 0, fmt.Errorf("failed to prune detection history: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if removed > 0 {
		r.logger.Info("Detection history pruned",
			zap.Int64("removed", removed),
			zap.Time("older_than", olderThan),
		)
	}
	return removed, nil
}

func (r *detectionRepository) groupCounts(ctx context.Context, column, whereClause string, args []interface{}, dest map[string]int) error {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM detection_history %s GROUP BY %s`,
		column, whereClause, column)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to group detection stats by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan detection stats: %w", err)
		}
		dest[key] = count
	}

	return rows.Err()
}

func (r *detectionRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*model.DetectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list detection records", zap.Error(err))
		return nil, fmt.Errorf("failed to list detection records: %w", err)
	}
	defer rows.Close()

	records := []*model.DetectionRecord{}
	for rows.Next() {
		record := &model.DetectionRecord{}
		err := rows.Scan(
			&record.ID, &record.Address, &record.TransportType, &record.Protocol,
			&record.ProtocolName, &record.Confidence, &record.DurationMS,
			&record.Success, &record.FallbackUsed, &record.ProtocolsTried,
			&record.ErrorMessage, &record.VehicleMake, &record.VehicleYear,
			&record.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detection records: %w", err)
	}

	return records, nil
}
