package daikin280

// Endpoints of the firmware 2.8.0 local API.
const (
	endpointStatus    = "/dsiot/edge/adr_0100.dgc_status"
	endpointOutdoor   = "/dsiot/edge/adr_0200.dgc_status"
	endpointWeekPower = "/dsiot/edge/adr_0100.i_power.week_power"
	endpointAdapter   = "/dsiot/edge.adp_i"

	multireqPath = "/dsiot/multireq"
	statusFilter = "?filter=pv,pt,md"
)

// probe is one candidate location of a logical field: the endpoint that
// answers for it, the node path inside that endpoint's tree, and the
// divisor to decode a temperature register found there.
type probe struct {
	to      string
	keys    []string
	divisor int
}

// Field locations vary between firmware revisions, so fields that have been
// observed in more than one place carry an ordered candidate list; the
// first probe that yields a present value wins. Single-location fields are
// one-element lists for uniformity.
var (
	powerProbes = []probe{
		{to: endpointStatus, keys: []string{"dgc_status", "e_1002", "e_A002", "p_01"}},
	}
	modeProbes = []probe{
		{to: endpointStatus, keys: []string{"dgc_status", "e_1002", "e_3001", "p_01"}},
	}
	indoorTempProbes = []probe{
		// The indoor sensor reports whole degrees, undoubled.
		{to: endpointStatus, keys: []string{"dgc_status", "e_1002", "e_A00B", "p_01"}, divisor: 1},
	}
	humidityProbes = []probe{
		{to: endpointStatus, keys: []string{"dgc_status", "e_1002", "e_A00B", "p_02"}},
	}
	outdoorTempProbes = []probe{
		{to: endpointOutdoor, keys: []string{"dgc_status", "e_1003", "e_A00D", "p_01"}, divisor: 2},
		{to: endpointOutdoor, keys: []string{"dgc_status", "e_1002", "e_A00D", "p_01"}, divisor: 2},
	}
	runtimeProbes = []probe{
		{to: endpointWeekPower, keys: []string{"week_power", "today_runtime"}},
	}
	energyProbes = []probe{
		{to: endpointWeekPower, keys: []string{"week_power", "datas"}},
	}
	macProbes = []probe{
		{to: endpointAdapter, keys: []string{"adp_i", "mac"}},
	}
)

// statusParam points a write at a register under the main status tree.
func statusParam(container, name, value string) Attribute {
	return Attribute{
		Name:  name,
		Value: value,
		Path:  []string{"e_1002", container},
		To:    endpointStatus,
	}
}

// setpointProbe is the location of the target temperature register for the
// given mode, or absent when the mode has none.
func setpointProbe(mode HVACMode) (probe, bool) {
	name, ok := tempParamByMode[mode]
	if !ok {
		return probe{}, false
	}
	return probe{
		to:      endpointStatus,
		keys:    []string{"dgc_status", "e_1002", "e_3001", name},
		divisor: 2,
	}, true
}

// fanProbe is the location of the fan speed register for the given mode.
func fanProbe(mode HVACMode) (probe, fanParam, bool) {
	param, ok := fanParamByMode[mode]
	if !ok {
		return probe{}, fanParam{}, false
	}
	return probe{
		to:   endpointStatus,
		keys: []string{"dgc_status", "e_1002", param.container, param.name},
	}, param, true
}

// swingProbes are the vertical and horizontal louvre registers for the
// given mode.
func swingProbes(mode HVACMode) (vertical, horizontal probe, ok bool) {
	params, found := swingParamsByMode[mode]
	if !found {
		return probe{}, probe{}, false
	}
	vertical = probe{to: endpointStatus, keys: []string{"dgc_status", "e_1002", "e_3001", params.vertical}}
	horizontal = probe{to: endpointStatus, keys: []string{"dgc_status", "e_1002", "e_3001", params.horizontal}}
	return vertical, horizontal, true
}
