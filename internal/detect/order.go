// internal/detect/order.go
package detect

import "github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"

// FallbackStrategy names a bundle of protocols retried after the optimized
// order found nothing.
type FallbackStrategy string

const (
	FallbackModernVehicles  FallbackStrategy = "MODERN_VEHICLES_ONLY"
	FallbackLegacyProtocols FallbackStrategy = "LEGACY_PROTOCOLS_ONLY"
	FallbackCommonProtocols FallbackStrategy = "COMMON_PROTOCOLS_ONLY"
	FallbackHeavyDuty       FallbackStrategy = "HEAVY_DUTY_FOCUS"
)

// Protocols returns the bundle behind a strategy.
func (s FallbackStrategy) Protocols() []obd.Protocol {
	switch s {
	case FallbackModernVehicles:
		return obd.ModernProtocols()
	case FallbackLegacyProtocols:
		return obd.LegacyProtocols()
	case FallbackHeavyDuty:
		return obd.HeavyDutyProtocols()
	default:
		return obd.CommonProtocols()
	}
}

// fallbackPlan picks the strategies worth trying for a vehicle. The branch
// order is fixed: modern year wins over heavy-duty, heavy-duty over legacy
// year.
func fallbackPlan(vehicle *obd.VehicleInfo) []FallbackStrategy {
	switch {
	case vehicle.IsModern():
		return []FallbackStrategy{FallbackModernVehicles, FallbackCommonProtocols}
	case vehicle.IsHeavyDuty():
		return []FallbackStrategy{FallbackHeavyDuty, FallbackModernVehicles}
	case vehicle.IsLegacyEra():
		return []FallbackStrategy{FallbackLegacyProtocols, FallbackCommonProtocols}
	default:
		return []FallbackStrategy{FallbackCommonProtocols, FallbackModernVehicles, FallbackLegacyProtocols}
	}
}

// OptimizedOrder builds the primary candidate list for a detection run:
// the preferred protocol first, then a focused set chosen from the
// vehicle hints. The list deliberately stays narrow when hints are strong;
// the fallback bundles widen the search if it comes up empty. Skipped
// protocols are removed last, so a protocol both preferred and skipped
// stays skipped.
func OptimizedOrder(vehicle *obd.VehicleInfo, preferred obd.Protocol, skip []obd.Protocol) []obd.Protocol {
	order := make([]obd.Protocol, 0, 12)
	if preferred != obd.ProtocolAuto {
		order = append(order, preferred)
	}

	switch {
	case vehicle.IsHeavyDuty():
		// J1939 and 29-bit CAN first; trucks with modern passenger
		// electronics still answer on ISO 15765.
		order = append(order, obd.HeavyDutyProtocols()...)
		order = append(order, obd.ModernProtocols()...)
	case vehicle.IsModern():
		order = append(order, obd.ModernProtocols()...)
	case vehicle.IsLegacyEra():
		order = append(order, regionFirst(vehicle, obd.LegacyProtocols())...)
	default:
		order = append(order, regionFirst(vehicle, obd.CommonProtocols())...)
	}

	return dedupe(order, skip)
}

// regionFirst prepends the region-affine protocols to a base ordering.
func regionFirst(vehicle *obd.VehicleInfo, base []obd.Protocol) []obd.Protocol {
	var front []obd.Protocol
	switch vehicle.DetectRegion() {
	case obd.RegionEuropean:
		front = []obd.Protocol{obd.ProtocolISO14230KWPFast, obd.ProtocolISO14230KWP5Baud}
	case obd.RegionAmerican:
		front = []obd.Protocol{obd.ProtocolSAEJ1850VPW, obd.ProtocolSAEJ1850PWM}
	case obd.RegionAsian:
		front = []obd.Protocol{obd.ProtocolISO9141_2}
	default:
		return base
	}
	return append(front, base...)
}

// dedupe keeps the first occurrence of each protocol and drops skipped and
// non-selectable entries.
func dedupe(order []obd.Protocol, skip []obd.Protocol) []obd.Protocol {
	skipped := make(map[obd.Protocol]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	seen := make(map[obd.Protocol]bool, len(order))
	out := make([]obd.Protocol, 0, len(order))
	for _, p := range order {
		if p == obd.ProtocolAuto || seen[p] || skipped[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
