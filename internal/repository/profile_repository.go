// internal/repository/profile_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/database"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/model"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new scanner profile repository
func NewProfileRepository(db *database.DB, logger *zap.Logger) ProfileRepository {
	return &profileRepository{
		db:     db,
		logger: logger,
	}
}

const profileColumns = `id, name, transport_type, address, settings, vehicle,
	   preferred_protocol, auto_connect, created_at, updated_at`

// Create creates a new scanner profile
func (r *profileRepository) Create(ctx context.Context, profile *model.ScannerProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO scanner_profiles (
			id, name, transport_type, address, settings, vehicle,
			preferred_protocol, auto_connect, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Name, profile.TransportType, profile.Address,
		profile.Settings, profile.Vehicle, protocolValue(profile.PreferredProtocol),
		profile.AutoConnect, profile.CreatedAt, profile.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create scanner profile", zap.Error(err), zap.String("name", profile.Name))
		return fmt.Errorf("failed to create scanner profile: %w", err)
	}

	r.logger.Info("Scanner profile created",
		zap.String("id", profile.ID.String()),
		zap.String("name", profile.Name),
		zap.String("address", profile.Address),
	)
	return nil
}

// Save creates the profile or replaces the existing profile with the same
// name, keeping the original row id and creation time.
func (r *profileRepository) Save(ctx context.Context, profile *model.ScannerProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	query := `
		INSERT INTO scanner_profiles (
			id, name, transport_type, address, settings, vehicle,
			preferred_protocol, auto_connect, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			transport_type = excluded.transport_type,
			address = excluded.address,
			settings = excluded.settings,
			vehicle = excluded.vehicle,
			preferred_protocol = excluded.preferred_protocol,
			auto_connect = excluded.auto_connect,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		profile.ID, profile.Name, profile.TransportType, profile.Address,
		profile.Settings, profile.Vehicle, protocolValue(profile.PreferredProtocol),
		profile.AutoConnect, profile.CreatedAt, profile.UpdatedAt,
	).Scan(&profile.ID, &profile.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to save scanner profile", zap.Error(err), zap.String("name", profile.Name))
		return fmt.Errorf("failed to save scanner profile: %w", err)
	}

	r.logger.Info("Scanner profile saved", zap.String("name", profile.Name))
	return nil
}

// GetByID retrieves a scanner profile by its UUID
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ScannerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scanner_profiles WHERE id = ?`

	profile, err := r.scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scanner profile %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to get scanner profile", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get scanner profile: %w", err)
	}

	return profile, nil
}

// GetByName retrieves a scanner profile by its unique name
func (r *profileRepository) GetByName(ctx context.Context, name string) (*model.ScannerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scanner_profiles WHERE name = ?`

	profile, err := r.scanProfile(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scanner profile %q: %w", name, ErrNotFound)
		}
		r.logger.Error("Failed to get scanner profile by name", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to get scanner profile: %w", err)
	}

	return profile, nil
}

// GetByAddress retrieves a scanner profile by transport type and address
func (r *profileRepository) GetByAddress(ctx context.Context, transportType transport.TransportType, address string) (*model.ScannerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scanner_profiles
		WHERE transport_type = ? AND address = ?`

	profile, err := r.scanProfile(r.db.QueryRowContext(ctx, query, transportType, address))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scanner profile for %s %s: %w", transportType, address, ErrNotFound)
		}
		r.logger.Error("Failed to get scanner profile by address", zap.Error(err), zap.String("address", address))
		return nil, fmt.Errorf("failed to get scanner profile: %w", err)
	}

	return profile, nil
}

// Update updates an existing scanner profile
func (r *profileRepository) Update(ctx context.Context, profile *model.ScannerProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE scanner_profiles SET
			name = ?, transport_type = ?, address = ?, settings = ?,
			vehicle = ?, preferred_protocol = ?, auto_connect = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		profile.Name, profile.TransportType, profile.Address, profile.Settings,
		profile.Vehicle, protocolValue(profile.PreferredProtocol),
		profile.AutoConnect, profile.UpdatedAt, profile.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update scanner profile", zap.Error(err), zap.String("id", profile.ID.String()))
		return fmt.Errorf("failed to update scanner profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("scanner profile %s: %w", profile.ID, ErrNotFound)
	}

	r.logger.Debug("Scanner profile updated", zap.String("id", profile.ID.String()))
	return nil
}

// Delete removes a scanner profile
func (r *profileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM scanner_profiles WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete scanner profile", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete scanner profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("scanner profile %s: %w", id, ErrNotFound)
	}

	r.logger.Info("Scanner profile deleted", zap.String("id", id.String()))
	return nil
}

// DeleteByName removes a scanner profile by its unique name
func (r *profileRepository) DeleteByName(ctx context.Context, name string) error {
	query := `DELETE FROM scanner_profiles WHERE name = ?`

	result, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		r.logger.Error("Failed to delete scanner profile", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("failed to delete scanner profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("scanner profile %q: %w", name, ErrNotFound)
	}

	r.logger.Info("Scanner profile deleted", zap.String("name", name))
	return nil
}

// List retrieves all scanner profiles ordered by name
func (r *profileRepository) List(ctx context.Context) ([]*model.ScannerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scanner_profiles ORDER BY name`

	return r.queryProfiles(ctx, query)
}

// ListAutoConnect retrieves profiles flagged for automatic connection
func (r *profileRepository) ListAutoConnect(ctx context.Context) ([]*model.ScannerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scanner_profiles
		WHERE auto_connect = 1 ORDER BY updated_at DESC`

	return r.queryProfiles(ctx, query)
}

func (r *profileRepository) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]*model.ScannerProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list scanner profiles", zap.Error(err))
		return nil, fmt.Errorf("failed to list scanner profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*model.ScannerProfile{}
	for rows.Next() {
		profile, err := r.scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scanner profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scanner profiles: %w", err)
	}

	return profiles, nil
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *profileRepository) scanProfile(row scanner) (*model.ScannerProfile, error) {
	profile := &model.ScannerProfile{}
	var preferred sql.NullInt64

	err := row.Scan(
		&profile.ID, &profile.Name, &profile.TransportType, &profile.Address,
		&profile.Settings, &profile.Vehicle, &preferred, &profile.AutoConnect,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if preferred.Valid {
		p := obd.Protocol(preferred.Int64)
		profile.PreferredProtocol = &p
	}

	return profile, nil
}

// protocolValue converts an optional protocol into its column value
func protocolValue(p *obd.Protocol) interface{} {
	if p == nil {
		return nil
	}
	return int64(*p)
}
