// internal/manager/health.go
package manager

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// LinkQuality grades the adapter link from the identify round trip.
type LinkQuality string

const (
	QualityExcellent LinkQuality = "EXCELLENT"
	QualityGood      LinkQuality = "GOOD"
	QualityFair      LinkQuality = "FAIR"
	QualityPoor      LinkQuality = "POOR"
)

// lowVoltageThreshold is the supply voltage below which a vehicle battery
// is considered too weak for reliable diagnostics.
var lowVoltageThreshold = decimal.NewFromFloat(11.5)

// HealthReport is the outcome of a connection health check.
type HealthReport struct {
	Quality      LinkQuality      `json:"quality"`
	ResponseTime time.Duration    `json:"response_time"`
	AdapterID    string           `json:"adapter_id,omitempty"`
	Voltage      *decimal.Decimal `json:"voltage,omitempty"`
	LowVoltage   bool             `json:"low_voltage"`
	CheckedAt    time.Time        `json:"checked_at"`
}

// CheckHealth probes the active adapter with the identify command, grades
// the round trip, and reads the vehicle supply voltage. The voltage read
// is best-effort; adapters without a voltage pin simply leave it unset.
func (m *ScannerManager) CheckHealth(ctx context.Context) (*HealthReport, error) {
	conn := m.activeConn()
	if conn == nil || !conn.IsConnected() {
		return nil, noActiveErr()
	}

	start := time.Now()
	res, err := conn.SendCommand(ctx, obd.CmdIdentify, m.config.CommandTimeout, obd.PromptTerminator)
	rtt := time.Since(start)
	if err != nil {
		return nil, err
	}

	report := &HealthReport{
		Quality:      classifyQuality(rtt),
		ResponseTime: rtt,
		AdapterID:    obd.CleanResponse(obd.CmdIdentify, res.Data),
		CheckedAt:    time.Now().UTC(),
	}

	if vres, err := conn.SendCommand(ctx, obd.CmdReadVoltage, m.config.CommandTimeout, obd.PromptTerminator); err == nil {
		if voltage, ok := parseVoltage(obd.CleanResponse(obd.CmdReadVoltage, vres.Data)); ok {
			report.Voltage = &voltage
			report.LowVoltage = voltage.LessThan(lowVoltageThreshold)
		}
	}
	return report, nil
}

func classifyQuality(rtt time.Duration) LinkQuality {
	switch {
	case rtt < 100*time.Millisecond:
		return QualityExcellent
	case rtt < 300*time.Millisecond:
		return QualityGood
	case rtt < time.Second:
		return QualityFair
	default:
		return QualityPoor
	}
}

// parseVoltage reads an ATRV reply such as "12.6V". Decimal arithmetic
// keeps the tenth-of-a-volt comparison exact.
func parseVoltage(response string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, "v"), "V")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return decimal.Decimal{}, false
	}
	voltage, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return voltage, true
}
