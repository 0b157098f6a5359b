// pkg/obd/vehicle.go
package obd

import "strings"

// VehicleInfo carries optional hints about the vehicle under diagnosis.
// Hints only influence protocol ordering and confidence scoring; every
// field may be left zero.
type VehicleInfo struct {
	Make       string `json:"make,omitempty"`
	Model      string `json:"model,omitempty"`
	Year       int    `json:"year,omitempty"`
	EngineType string `json:"engine_type,omitempty"`
	Region     string `json:"region,omitempty"`
}

// canMandateYear is the model year from which CAN (ISO 15765-4) became
// mandatory for vehicles sold in the US.
const canMandateYear = 2008

var heavyDutyMakes = map[string]bool{
	"FREIGHTLINER":  true,
	"KENWORTH":      true,
	"PETERBILT":     true,
	"MACK":          true,
	"INTERNATIONAL": true,
	"WESTERN STAR":  true,
	"VOLVO TRUCKS":  true,
	"SCANIA":        true,
	"MAN":           true,
	"DAF":           true,
	"IVECO":         true,
	"HINO":          true,
}

var europeanMakes = map[string]bool{
	"AUDI": true, "BMW": true, "MERCEDES": true, "MERCEDES-BENZ": true,
	"VOLKSWAGEN": true, "VW": true, "VOLVO": true, "PORSCHE": true,
	"FIAT": true, "RENAULT": true, "PEUGEOT": true, "CITROEN": true,
	"SKODA": true, "SEAT": true, "OPEL": true, "LAND ROVER": true,
	"JAGUAR": true, "MINI": true, "ALFA ROMEO": true, "SAAB": true,
}

var americanMakes = map[string]bool{
	"FORD": true, "CHEVROLET": true, "CHEVY": true, "GMC": true,
	"DODGE": true, "CHRYSLER": true, "JEEP": true, "RAM": true,
	"CADILLAC": true, "BUICK": true, "LINCOLN": true, "PONTIAC": true,
	"OLDSMOBILE": true, "SATURN": true, "MERCURY": true,
}

var asianMakes = map[string]bool{
	"TOYOTA": true, "HONDA": true, "NISSAN": true, "MAZDA": true,
	"SUBARU": true, "MITSUBISHI": true, "SUZUKI": true, "LEXUS": true,
	"ACURA": true, "INFINITI": true, "HYUNDAI": true, "KIA": true,
	"DAIHATSU": true, "ISUZU": true,
}

// Region classification derived from the make or the explicit Region hint.
type VehicleRegion string

const (
	RegionUnknown  VehicleRegion = "UNKNOWN"
	RegionEuropean VehicleRegion = "EUROPEAN"
	RegionAmerican VehicleRegion = "AMERICAN"
	RegionAsian    VehicleRegion = "ASIAN"
)

// IsModern reports whether the vehicle falls under the CAN mandate.
func (v *VehicleInfo) IsModern() bool {
	return v != nil && v.Year >= canMandateYear
}

// IsLegacyEra reports whether the vehicle predates the CAN mandate.
// A zero year is unknown, not legacy.
func (v *VehicleInfo) IsLegacyEra() bool {
	return v != nil && v.Year > 0 && v.Year < canMandateYear
}

// IsHeavyDuty reports whether the vehicle is a truck or commercial vehicle
// likely to speak J1939.
func (v *VehicleInfo) IsHeavyDuty() bool {
	if v == nil {
		return false
	}
	if heavyDutyMakes[normalizeHint(v.Make)] {
		return true
	}
	return strings.Contains(normalizeHint(v.EngineType), "HEAVY")
}

// DetectRegion classifies the vehicle by explicit region hint first, then
// by make.
func (v *VehicleInfo) DetectRegion() VehicleRegion {
	if v == nil {
		return RegionUnknown
	}
	switch normalizeHint(v.Region) {
	case "EU", "EUROPE", "EUROPEAN":
		return RegionEuropean
	case "US", "USA", "AMERICA", "NORTH_AMERICA", "AMERICAN":
		return RegionAmerican
	case "ASIA", "JP", "JAPAN", "KR", "KOREA", "ASIAN":
		return RegionAsian
	}
	mk := normalizeHint(v.Make)
	switch {
	case europeanMakes[mk]:
		return RegionEuropean
	case americanMakes[mk]:
		return RegionAmerican
	case asianMakes[mk]:
		return RegionAsian
	default:
		return RegionUnknown
	}
}

func normalizeHint(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
