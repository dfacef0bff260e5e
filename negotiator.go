package daikin280

import (
	"context"
	"fmt"
)

// quickOffsets are the near neighbours probed before falling back to a
// linear walk, covering devices that round to the nearest half or whole
// degree. The order is biased toward the direction being searched.
var quickOffsets = [4]float64{0.5, 1.0, -0.5, -1.0}

const walkSteps = 10

// SetTemperature writes the target temperature for the current mode. When
// the device rejects the exact value it searches outward for the nearest
// value the device will take: a handful of quick offsets first, then
// bounded half-degree walks upward and downward. The first accepted value
// is committed and, if it differs from the request, recorded as an
// adjustment. Transport and device failures other than a value rejection
// abort the search immediately.
func (d *Device) SetTemperature(ctx context.Context, celsius float64) error {
	param, ok := tempParamByMode[d.state.HVACMode]
	if !ok {
		return &UnsupportedOperationError{Op: "set temperature", Mode: d.state.HVACMode}
	}

	d.logger.Info("temperature change requested", "celsius", celsius)

	applied, accepted, err := d.trySetpoint(ctx, param, celsius)
	if err != nil {
		return err
	}
	if accepted {
		d.commitTarget(celsius, applied)
		return nil
	}

	d.logger.Info("setpoint rejected, searching for nearest accepted value", "celsius", celsius)

	found, err := d.searchSetpoint(ctx, param, celsius, +1)
	if err != nil {
		return err
	}
	if found == nil {
		found, err = d.searchSetpoint(ctx, param, celsius, -1)
		if err != nil {
			return err
		}
	}
	if found == nil {
		return NewDaikinError(fmt.Sprintf(
			"no accepted setpoint near %.1f°C; device range may be limited in %s mode",
			celsius, d.state.HVACMode), nil)
	}

	d.commitTarget(celsius, *found)
	return nil
}

// trySetpoint attempts one write of the register. The returned value is the
// temperature the wire encoding actually denotes (the request snapped to
// the half-degree grid). A rejection is a normal outcome; anything else
// that goes wrong is returned as an error.
func (d *Device) trySetpoint(ctx context.Context, param string, celsius float64) (float64, bool, error) {
	applied := quantizeTemp(celsius)
	attribute := Attribute{
		Name:  param,
		Value: tempToHex(celsius),
		Path:  []string{"e_1002", "e_3001"},
		To:    endpointStatus,
	}
	d.logger.Debug("trying setpoint", "celsius", applied, "hex", attribute.Value, "param", param)

	err := d.writeAttributes(ctx, attribute)
	if err == nil {
		return applied, true, nil
	}
	if IsRejection(err) {
		d.logger.Debug("setpoint rejected by device", "celsius", applied)
		return 0, false, nil
	}
	return 0, false, err
}

// searchSetpoint probes for an accepted value around start: quick offsets
// in direction-biased order, then a bounded walk of half-degree steps.
// Probes outside [MinTemp, MaxTemp] are skipped without a device call.
func (d *Device) searchSetpoint(ctx context.Context, param string, start float64, direction int) (*float64, error) {
	offsets := quickOffsets
	if direction < 0 {
		offsets = [4]float64{-0.5, -1.0, 0.5, 1.0}
	}

	for _, offset := range offsets {
		candidate := start + offset
		if candidate < MinTemp || candidate > MaxTemp {
			continue
		}
		applied, accepted, err := d.trySetpoint(ctx, param, candidate)
		if err != nil {
			return nil, err
		}
		if accepted {
			return &applied, nil
		}
	}

	candidate := start
	for i := 0; i < walkSteps; i++ {
		candidate += float64(direction) * 0.5
		if candidate < MinTemp || candidate > MaxTemp {
			break
		}
		applied, accepted, err := d.trySetpoint(ctx, param, candidate)
		if err != nil {
			return nil, err
		}
		if accepted {
			return &applied, nil
		}
	}

	return nil, nil
}

// commitTarget records the accepted setpoint. An adjustment note is kept
// only when the committed value differs from the requested one; a verbatim
// acceptance clears any previous note.
func (d *Device) commitTarget(requested, actual float64) {
	d.state.TargetTemperature = float64Ptr(actual)
	if actual == requested {
		d.lastAdjustment = nil
		return
	}
	d.lastAdjustment = newAdjustment(requested, actual)
	d.logger.Info(d.lastAdjustment.Message)
}
