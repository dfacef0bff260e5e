package daikin280

import "fmt"

// TemperatureAdjustment records a setpoint that the device would not take
// verbatim and the nearest value it accepted instead.
type TemperatureAdjustment struct {
	Requested float64
	Actual    float64
	Message   string
}

func newAdjustment(requested, actual float64) *TemperatureAdjustment {
	return &TemperatureAdjustment{
		Requested: requested,
		Actual:    actual,
		Message: fmt.Sprintf("temperature adjusted from %.1f°C to %.1f°C (nearest accepted)",
			requested, actual),
	}
}

// State is one decoded snapshot of the unit. A snapshot is built on the
// side during a refresh and swapped in whole; nullable sensor fields are
// nil when the device did not report them.
type State struct {
	HVACMode  HVACMode
	FanMode   FanMode
	SwingMode SwingMode

	CurrentTemperature *float64
	OutsideTemperature *float64
	TargetTemperature  *float64
	CurrentHumidity    *int

	EnergyTodayKWh  float64
	RuntimeTodayMin int
}

func formatMAC(mac string) string {
	if len(mac) != 12 {
		return mac
	}

	result := ""
	for i := 0; i < len(mac); i += 2 {
		if i > 0 {
			result += ":"
		}
		result += mac[i : i+2]
	}
	return result
}

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
