// internal/repository/repository_test.go
package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/config"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/database"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/model"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "scanner.db"),
		MigrationsPath: "../../migrations",
		MaxOpenConns:   1,
		MaxIdleConns:   1,
	}

	logger := zap.NewNop()
	db, err := database.NewConnection(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger, cfg).Up())
	return db
}

func sampleProfile(name, address string) *model.ScannerProfile {
	preferred := obd.ProtocolISO15765CAN11Bit500K
	return &model.ScannerProfile{
		Name:          name,
		TransportType: transport.TransportBluetooth,
		Address:       address,
		Settings:      model.ConnectionSettings(transport.BluetoothConfig()),
		Vehicle: model.VehicleHint{
			Make: "Toyota",
			Year: 2019,
		},
		PreferredProtocol: &preferred,
	}
}

func TestProfileRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create and get roundtrip", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		profile := sampleProfile("garage elm", "00:1D:A5:68:98:8B")
		require.NoError(t, repo.Create(ctx, profile))
		require.NotEqual(t, uuid.Nil, profile.ID)

		got, err := repo.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, profile.Name, got.Name)
		assert.Equal(t, transport.TransportBluetooth, got.TransportType)
		assert.Equal(t, profile.Address, got.Address)
		assert.Equal(t, profile.Settings, got.Settings)
		assert.Equal(t, "Toyota", got.Vehicle.Make)
		assert.Equal(t, 2019, got.Vehicle.Year)
		require.NotNil(t, got.PreferredProtocol)
		assert.Equal(t, obd.ProtocolISO15765CAN11Bit500K, *got.PreferredProtocol)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("get by address", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		profile := sampleProfile("wifi adapter", "192.168.0.10:35000")
		profile.TransportType = transport.TransportWiFi
		require.NoError(t, repo.Create(ctx, profile))

		got, err := repo.GetByAddress(ctx, transport.TransportWiFi, "192.168.0.10:35000")
		require.NoError(t, err)
		assert.Equal(t, profile.ID, got.ID)

		_, err = repo.GetByAddress(ctx, transport.TransportSerial, "192.168.0.10:35000")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate address rejected", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		require.NoError(t, repo.Create(ctx, sampleProfile("first", "AA:BB:CC:DD:EE:FF")))
		err := repo.Create(ctx, sampleProfile("second", "AA:BB:CC:DD:EE:FF"))
		require.Error(t, err)
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		profile := sampleProfile("before", "11:22:33:44:55:66")
		require.NoError(t, repo.Create(ctx, profile))

		profile.Name = "after"
		profile.PreferredProtocol = nil
		profile.AutoConnect = true
		require.NoError(t, repo.Update(ctx, profile))

		got, err := repo.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Name)
		assert.Nil(t, got.PreferredProtocol)
		assert.True(t, got.AutoConnect)
	})

	t.Run("update missing profile", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		missing := sampleProfile("ghost", "77:88:99:AA:BB:CC")
		missing.ID = uuid.New()
		require.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		profile := sampleProfile("short lived", "DE:AD:BE:EF:00:01")
		require.NoError(t, repo.Create(ctx, profile))
		require.NoError(t, repo.Delete(ctx, profile.ID))

		_, err := repo.GetByID(ctx, profile.ID)
		require.ErrorIs(t, err, ErrNotFound)

		require.ErrorIs(t, repo.Delete(ctx, profile.ID), ErrNotFound)
	})

	t.Run("save upserts by name", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		original := sampleProfile("daily driver", "00:11:22:33:44:55")
		require.NoError(t, repo.Save(ctx, original))
		firstID := original.ID

		replacement := sampleProfile("daily driver", "10.0.0.9:35000")
		replacement.TransportType = transport.TransportWiFi
		replacement.Settings = model.ConnectionSettings(transport.WiFiConfig())
		replacement.Vehicle = model.VehicleHint{Make: "Volvo", Year: 1999}
		require.NoError(t, repo.Save(ctx, replacement))
		assert.Equal(t, firstID, replacement.ID)

		got, err := repo.GetByName(ctx, "daily driver")
		require.NoError(t, err)
		assert.Equal(t, firstID, got.ID)
		assert.Equal(t, transport.TransportWiFi, got.TransportType)
		assert.Equal(t, "10.0.0.9:35000", got.Address)
		assert.Equal(t, replacement.Settings, got.Settings)
		assert.Equal(t, "Volvo", got.Vehicle.Make)

		_, err = repo.GetByName(ctx, "unknown")
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, repo.DeleteByName(ctx, "daily driver"))
		require.ErrorIs(t, repo.DeleteByName(ctx, "daily driver"), ErrNotFound)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		t.Parallel()
		repo := NewProfileRepository(setupDB(t), zap.NewNop())

		b := sampleProfile("bravo", "10.0.0.2:35000")
		b.TransportType = transport.TransportWiFi
		a := sampleProfile("alpha", "/dev/ttyUSB0")
		a.TransportType = transport.TransportSerial
		a.AutoConnect = true
		require.NoError(t, repo.Create(ctx, b))
		require.NoError(t, repo.Create(ctx, a))

		profiles, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "alpha", profiles[0].Name)
		assert.Equal(t, "bravo", profiles[1].Name)

		auto, err := repo.ListAutoConnect(ctx)
		require.NoError(t, err)
		require.Len(t, auto, 1)
		assert.Equal(t, "alpha", auto[0].Name)
	})
}

func sampleRecord(address string, protocol obd.Protocol, success bool, at time.Time) *model.DetectionRecord {
	return &model.DetectionRecord{
		Address:        address,
		TransportType:  transport.TransportBluetooth,
		Protocol:       protocol,
		Confidence:     0.9,
		DurationMS:     1200,
		Success:        success,
		ProtocolsTried: model.StringList{"ISO 15765-4 CAN (11 bit, 500 kbaud)"},
		DetectedAt:     at,
	}
}

func TestDetectionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("record and list by address", func(t *testing.T) {
		t.Parallel()
		repo := NewDetectionRepository(setupDB(t), zap.NewNop())

		base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		older := sampleRecord("adapter-1", obd.ProtocolISO9141_2, true, base)
		newer := sampleRecord("adapter-1", obd.ProtocolISO15765CAN11Bit500K, true, base.Add(time.Hour))
		require.NoError(t, repo.Record(ctx, older))
		require.NoError(t, repo.Record(ctx, newer))
		require.NoError(t, repo.Record(ctx, sampleRecord("adapter-2", obd.ProtocolISO14230KWPFast, true, base)))

		records, err := repo.ListByAddress(ctx, "adapter-1", 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, obd.ProtocolISO15765CAN11Bit500K, records[0].Protocol)
		assert.Equal(t, obd.ProtocolISO15765CAN11Bit500K.String(), records[0].ProtocolName)
		assert.Equal(t, obd.ProtocolISO9141_2, records[1].Protocol)
		assert.Equal(t, model.StringList{"ISO 15765-4 CAN (11 bit, 500 kbaud)"}, records[0].ProtocolsTried)
	})

	t.Run("last known protocol", func(t *testing.T) {
		t.Parallel()
		repo := NewDetectionRepository(setupDB(t), zap.NewNop())

		base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Record(ctx, sampleRecord("adapter-1", obd.ProtocolISO9141_2, true, base)))
		require.NoError(t, repo.Record(ctx, sampleRecord("adapter-1", obd.ProtocolISO15765CAN11Bit500K, true, base.Add(time.Minute))))
		// Later failure must not override the last success
		failed := sampleRecord("adapter-1", obd.ProtocolAuto, false, base.Add(2*time.Minute))
		require.NoError(t, repo.Record(ctx, failed))

		protocol, err := repo.LastKnownProtocol(ctx, "adapter-1")
		require.NoError(t, err)
		assert.Equal(t, obd.ProtocolISO15765CAN11Bit500K, protocol)

		protocol, err = repo.LastKnownProtocol(ctx, "never-seen")
		require.NoError(t, err)
		assert.Equal(t, obd.ProtocolAuto, protocol)
	})

	t.Run("list with filter and pagination", func(t *testing.T) {
		t.Parallel()
		repo := NewDetectionRepository(setupDB(t), zap.NewNop())

		base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			rec := sampleRecord("adapter-1", obd.ProtocolISO15765CAN11Bit500K, true, base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, repo.Record(ctx, rec))
		}
		require.NoError(t, repo.Record(ctx, sampleRecord("adapter-1", obd.ProtocolAuto, false, base.Add(time.Hour))))

		success := true
		records, total, err := repo.List(ctx, &DetectionFilter{
			Address: strPtr("adapter-1"),
			Success: &success,
			Page:    1,
			PerPage: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, records, 3)

		records, total, err = repo.List(ctx, &DetectionFilter{
			Address: strPtr("adapter-1"),
			Success: &success,
			Page:    2,
			PerPage: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, records, 2)
	})

	t.Run("stats", func(t *testing.T) {
		t.Parallel()
		repo := NewDetectionRepository(setupDB(t), zap.NewNop())

		base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		ok := sampleRecord("adapter-1", obd.ProtocolISO15765CAN11Bit500K, true, base)
		ok.DurationMS = 1000
		ok.Confidence = 0.8
		require.NoError(t, repo.Record(ctx, ok))

		kwp := sampleRecord("adapter-1", obd.ProtocolISO14230KWPFast, true, base.Add(time.Minute))
		kwp.DurationMS = 3000
		kwp.Confidence = 0.6
		require.NoError(t, repo.Record(ctx, kwp))

		failed := sampleRecord("adapter-1", obd.ProtocolAuto, false, base.Add(2*time.Minute))
		failed.DurationMS = 30000
		failed.Confidence = 0
		require.NoError(t, repo.Record(ctx, failed))

		stats, err := repo.Stats(ctx, strPtr("adapter-1"))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalDetections)
		assert.Equal(t, 2, stats.Successful)
		assert.Equal(t, 1, stats.Failed)
		assert.InDelta(t, (1000+3000+30000)/3.0, stats.AvgDurationMS, 0.001)
		assert.InDelta(t, 0.7, stats.AvgConfidence, 0.001)
		assert.Equal(t, 1, stats.ByProtocol[obd.ProtocolISO15765CAN11Bit500K.String()])
		assert.Equal(t, 1, stats.ByProtocol[obd.ProtocolISO14230KWPFast.String()])
		assert.Equal(t, 3, stats.ByTransport[string(transport.TransportBluetooth)])
	})

	t.Run("prune", func(t *testing.T) {
		t.Parallel()
		repo := NewDetectionRepository(setupDB(t), zap.NewNop())

		base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Record(ctx, sampleRecord("adapter-1", obd.ProtocolISO9141_2, true, base)))
		require.NoError(t, repo.Record(ctx, sampleRecord("adapter-1", obd.ProtocolISO15765CAN11Bit500K, true, base.Add(48*time.Hour))))

		removed, err := repo.Prune(ctx, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		records, err := repo.ListByAddress(ctx, "adapter-1", 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, obd.ProtocolISO15765CAN11Bit500K, records[0].Protocol)
	})
}

func strPtr(s string) *string { return &s }
