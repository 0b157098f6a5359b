// internal/detect/order_test.go
package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

func TestOptimizedOrder(t *testing.T) {
	t.Parallel()

	t.Run("modern vehicle probes CAN variants only", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Year: 2015}, obd.ProtocolAuto, nil)
		assert.Equal(t, obd.ModernProtocols(), order)
	})

	t.Run("heavy duty leads with J1939 and keeps modern CAN", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Make: "Kenworth"}, obd.ProtocolAuto, nil)
		require.NotEmpty(t, order)
		assert.Equal(t, obd.ProtocolSAEJ1939CAN29Bit250K, order[0])
		assert.Contains(t, order, obd.ProtocolISO15765CAN11Bit500K)
		assert.Len(t, order, 5, "heavy-duty and modern bundles overlap on 29-bit CAN")
	})

	t.Run("legacy european leads with KWP", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Make: "BMW", Year: 1999}, obd.ProtocolAuto, nil)
		require.GreaterOrEqual(t, len(order), 2)
		assert.Equal(t, obd.ProtocolISO14230KWPFast, order[0])
		assert.Equal(t, obd.ProtocolISO14230KWP5Baud, order[1])
		assert.NotContains(t, order, obd.ProtocolISO15765CAN11Bit500K)
	})

	t.Run("legacy american leads with J1850", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Make: "Ford", Year: 1998}, obd.ProtocolAuto, nil)
		require.GreaterOrEqual(t, len(order), 2)
		assert.Equal(t, obd.ProtocolSAEJ1850VPW, order[0])
		assert.Equal(t, obd.ProtocolSAEJ1850PWM, order[1])
	})

	t.Run("asian hint without a year fronts ISO 9141", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Make: "Honda"}, obd.ProtocolAuto, nil)
		require.NotEmpty(t, order)
		assert.Equal(t, obd.ProtocolISO9141_2, order[0])
	})

	t.Run("no hints fall back to the common protocols", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(nil, obd.ProtocolAuto, nil)
		assert.Equal(t, obd.CommonProtocols(), order)
	})

	t.Run("preferred protocol goes first", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Year: 2015}, obd.ProtocolISO9141_2, nil)
		require.NotEmpty(t, order)
		assert.Equal(t, obd.ProtocolISO9141_2, order[0])
	})

	t.Run("skip wins over preferred", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Year: 2015},
			obd.ProtocolISO15765CAN11Bit500K,
			[]obd.Protocol{obd.ProtocolISO15765CAN11Bit500K})
		assert.NotContains(t, order, obd.ProtocolISO15765CAN11Bit500K)
	})

	t.Run("no duplicates", func(t *testing.T) {
		t.Parallel()
		order := OptimizedOrder(&obd.VehicleInfo{Make: "Freightliner", Year: 2020},
			obd.ProtocolSAEJ1939CAN29Bit250K, nil)
		seen := make(map[obd.Protocol]bool)
		for _, p := range order {
			assert.False(t, seen[p], "duplicate %s", p)
			seen[p] = true
		}
	})
}

func TestFallbackPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vehicle *obd.VehicleInfo
		want    []FallbackStrategy
	}{
		{
			"modern year",
			&obd.VehicleInfo{Year: 2015},
			[]FallbackStrategy{FallbackModernVehicles, FallbackCommonProtocols},
		},
		{
			"modern wins over heavy duty",
			&obd.VehicleInfo{Make: "Freightliner", Year: 2020},
			[]FallbackStrategy{FallbackModernVehicles, FallbackCommonProtocols},
		},
		{
			"heavy duty without a year",
			&obd.VehicleInfo{Make: "Kenworth"},
			[]FallbackStrategy{FallbackHeavyDuty, FallbackModernVehicles},
		},
		{
			"legacy era",
			&obd.VehicleInfo{Year: 1999},
			[]FallbackStrategy{FallbackLegacyProtocols, FallbackCommonProtocols},
		},
		{
			"no hints",
			nil,
			[]FallbackStrategy{FallbackCommonProtocols, FallbackModernVehicles, FallbackLegacyProtocols},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fallbackPlan(tt.vehicle))
		})
	}
}

func TestFallbackStrategyProtocols(t *testing.T) {
	t.Parallel()

	assert.Equal(t, obd.ModernProtocols(), FallbackModernVehicles.Protocols())
	assert.Equal(t, obd.LegacyProtocols(), FallbackLegacyProtocols.Protocols())
	assert.Equal(t, obd.CommonProtocols(), FallbackCommonProtocols.Protocols())
	assert.Equal(t, obd.HeavyDutyProtocols(), FallbackHeavyDuty.Protocols())
}
