package daikin280

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Temperature range the negotiator is allowed to probe. Units in the field
// have not been seen to accept anything outside it.
const (
	MinTemp = 16.0
	MaxTemp = 30.0
)

// Device is a session against one firmware 2.8.0 unit. Calls are blocking
// round-trips and the caller is expected to serialize them; the device
// itself cannot handle concurrent requests.
type Device struct {
	deviceIP   string
	url        string
	httpClient *http.Client
	logger     Logger

	mac            string
	idResolved     bool
	state          State
	lastAdjustment *TemperatureAdjustment
}

// New creates a device session for the given address, which may carry an
// explicit port (host:port).
func New(deviceID string, logger Logger) *Device {
	if logger == nil {
		logger = NoOpLogger{}
	}
	ip, port := extractIPPort(deviceID)
	authority := ip
	if port != 0 {
		authority = fmt.Sprintf("%s:%d", ip, port)
	}
	return &Device{
		deviceIP:   ip,
		url:        fmt.Sprintf("http://%s%s", authority, multireqPath),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		state:      State{HVACMode: ModeOff, FanMode: FanAuto, SwingMode: SwingOff},
	}
}

// Connect creates a device session and performs the initial status fetch,
// resolving the unit's identity in the same round-trip.
func Connect(ctx context.Context, deviceID string, logger Logger) (*Device, error) {
	d := New(deviceID, logger)
	if err := d.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}
	d.logger.Info("connected to device", "ip", d.deviceIP, "id", d.ID())
	return d, nil
}

// extractIPPort splits an optional :port suffix off a device address.
func extractIPPort(deviceID string) (string, int) {
	portRegex := regexp.MustCompile(`^(.+):(\d+)$`)
	if matches := portRegex.FindStringSubmatch(deviceID); matches != nil {
		port, err := strconv.Atoi(matches[2])
		if err != nil {
			return deviceID, 0
		}
		return matches[1], port
	}
	return deviceID, 0
}

// DeviceIP returns the address the session talks to.
func (d *Device) DeviceIP() string {
	return d.deviceIP
}

// ID returns the unit identity: the MAC address resolved at initialization,
// or an address-derived fallback when the adapter tree did not answer.
func (d *Device) ID() string {
	if d.mac != "" {
		return d.mac
	}
	return fmt.Sprintf("daikin_%s", strings.ReplaceAll(d.deviceIP, ".", "_"))
}

// State returns the latest decoded snapshot.
func (d *Device) State() State {
	return d.state
}

// LastAdjustment returns the most recent setpoint clipping, or nil when the
// last requested setpoint was taken verbatim.
func (d *Device) LastAdjustment() *TemperatureAdjustment {
	return d.lastAdjustment
}

// AdjustmentMessage returns the human-readable note for the last setpoint
// clipping, or an empty string.
func (d *Device) AdjustmentMessage() string {
	if d.lastAdjustment == nil {
		return ""
	}
	return d.lastAdjustment.Message
}

// roundTrip sends one multireq call and decodes the JSON body.
func (d *Device) roundTrip(ctx context.Context, method string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProtocolError("failed to encode request", err)
	}

	d.logger.Debug("multireq call", "url", d.url, "method", method, "body", string(body))

	req, err := http.NewRequestWithContext(ctx, method, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, NewConnectionError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, NewConnectionError("failed to reach device", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewConnectionError(fmt.Sprintf("unexpected HTTP status: %d", resp.StatusCode), nil)
	}

	var doc map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, NewProtocolError("failed to decode response body", err)
	}
	return doc, nil
}

// writeAttributes serializes the attributes into one write payload, sends
// it, and validates every status code in the answer.
func (d *Device) writeAttributes(ctx context.Context, attributes ...Attribute) error {
	doc, err := d.roundTrip(ctx, http.MethodPut, Request{Attributes: attributes}.Serialize())
	if err != nil {
		return err
	}
	return validateResponse(doc)
}

func readPayload() *Payload {
	return &Payload{Requests: []*RequestEntry{
		{Op: opRead, To: endpointStatus + statusFilter},
		{Op: opRead, To: endpointOutdoor + statusFilter},
		{Op: opRead, To: endpointWeekPower + statusFilter},
		{Op: opRead, To: endpointAdapter},
	}}
}

// Refresh performs one full poll cycle: fetch the status, outdoor, power
// and adapter trees in a single batch, decode every field defensively, and
// replace the snapshot wholesale. A transport or protocol failure leaves
// the previous snapshot untouched.
func (d *Device) Refresh(ctx context.Context) error {
	doc, err := d.roundTrip(ctx, http.MethodPost, readPayload())
	if err != nil {
		return err
	}
	if err := validateResponse(doc); err != nil {
		return err
	}

	// Identity is resolved on the first successful cycle and never revised:
	// the id seeds the published entity topics, and a late MAC answer must
	// not move the device out from under them.
	if !d.idResolved {
		if mac, ok := firstString(doc, macProbes); ok {
			d.mac = formatMAC(mac)
		} else {
			d.logger.Warn("adapter tree did not yield a MAC, using fallback id", "id", d.ID())
		}
		d.idResolved = true
	}

	next := State{FanMode: FanAuto, SwingMode: SwingOff}

	powered := true
	if power, ok := firstString(doc, powerProbes); ok && power == "00" {
		powered = false
	}

	if !powered {
		next.HVACMode = ModeOff
	} else if modeHex, ok := firstString(doc, modeProbes); ok {
		if mode, known := modeByHex[modeHex]; known {
			next.HVACMode = mode
		} else {
			d.logger.Warn("unknown mode register value", "value", modeHex)
			next.HVACMode = ModeOff
		}
	} else {
		next.HVACMode = ModeOff
	}

	if value, p, ok := firstHit(doc, indoorTempProbes); ok {
		if temp, valid := hexToTemp(value, p.divisor); valid {
			next.CurrentTemperature = float64Ptr(temp)
		}
	}

	if value, p, ok := firstHit(doc, outdoorTempProbes); ok {
		if temp, valid := hexToTemp(value, p.divisor); valid {
			next.OutsideTemperature = float64Ptr(temp)
		}
	}

	if value, ok := firstString(doc, humidityProbes); ok {
		if humidity, valid := hexToInt(value); valid {
			next.CurrentHumidity = intPtr(humidity)
		}
	}

	if p, ok := setpointProbe(next.HVACMode); ok {
		if value, found := stringAt(doc, p); found {
			if temp, valid := hexToTemp(value, p.divisor); valid {
				next.TargetTemperature = float64Ptr(temp)
			}
		}
	}

	if p, param, ok := fanProbe(next.HVACMode); ok {
		if value, found := stringAt(doc, p); found {
			if fan, known := param.decode(value); known {
				next.FanMode = fan
			}
		}
	}

	if next.HVACMode != ModeOff {
		next.SwingMode = decodeSwing(doc, next.HVACMode)
	}

	if v, err := lookupFirst(doc, runtimeProbes); err == nil && v != nil {
		if runtime, ok := asInt(v); ok {
			next.RuntimeTodayMin = runtime
		}
	}

	if v, err := lookupFirst(doc, energyProbes); err == nil && v != nil {
		if datas, ok := v.([]interface{}); ok && len(datas) > 0 {
			if wh, valid := asInt(datas[len(datas)-1]); valid {
				next.EnergyTodayKWh = float64(wh) / 1000
			}
		}
	}

	d.state = next
	d.logger.Debug("refreshed state",
		"mode", next.HVACMode, "fan", next.FanMode, "swing", next.SwingMode)
	return nil
}

// decodeSwing reads the louvre registers for the current mode. An axis is
// swinging when its value contains an F nibble.
func decodeSwing(doc map[string]interface{}, mode HVACMode) SwingMode {
	verticalProbe, horizontalProbe, ok := swingProbes(mode)
	if !ok {
		return SwingOff
	}

	verticalValue, vOK := stringAt(doc, verticalProbe)
	horizontalValue, hOK := stringAt(doc, horizontalProbe)
	if !vOK || !hOK {
		return SwingOff
	}

	vertical := strings.Contains(verticalValue, "F")
	horizontal := strings.Contains(horizontalValue, "F")
	switch {
	case vertical && horizontal:
		return SwingBoth
	case horizontal:
		return SwingHorizontal
	case vertical:
		return SwingVertical
	default:
		return SwingOff
	}
}

// lookupFirst tries each probe in order and returns the first present
// value.
func lookupFirst(doc map[string]interface{}, probes []probe) (interface{}, error) {
	for _, p := range probes {
		v, err := findValue(doc, p.to, p.keys...)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

func stringAt(doc map[string]interface{}, p probe) (string, bool) {
	v, err := findValue(doc, p.to, p.keys...)
	if err != nil || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func firstString(doc map[string]interface{}, probes []probe) (string, bool) {
	value, _, ok := firstHit(doc, probes)
	return value, ok
}

func firstHit(doc map[string]interface{}, probes []probe) (string, probe, bool) {
	for _, p := range probes {
		if value, ok := stringAt(doc, p); ok {
			return value, p, true
		}
	}
	return "", probe{}, false
}

func asInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// setPower writes the power register.
func (d *Device) setPower(ctx context.Context, on bool) error {
	value := "00"
	if on {
		value = "01"
	}
	return d.writeAttributes(ctx, statusParam("e_A002", "p_01", value))
}

// TurnOn powers the unit up without changing its mode.
func (d *Device) TurnOn(ctx context.Context) error {
	d.logger.Info("turning on")
	return d.setPower(ctx, true)
}

// TurnOff powers the unit down.
func (d *Device) TurnOff(ctx context.Context) error {
	d.logger.Info("turning off")
	if err := d.setPower(ctx, false); err != nil {
		return err
	}
	d.state.HVACMode = ModeOff
	return nil
}

// SetHVACMode switches the operating mode, powering the unit on or off as
// needed.
func (d *Device) SetHVACMode(ctx context.Context, mode HVACMode) error {
	d.logger.Info("mode change requested", "mode", mode)
	if mode == ModeOff {
		return d.TurnOff(ctx)
	}

	modeHex, ok := hexByMode[mode]
	if !ok {
		return &UnsupportedOperationError{Op: "select mode", Mode: mode}
	}

	if err := d.setPower(ctx, true); err != nil {
		return err
	}
	if err := d.writeAttributes(ctx, statusParam("e_3001", "p_01", modeHex)); err != nil {
		return err
	}
	d.state.HVACMode = mode
	return nil
}

// SetFanMode writes the fan speed register for the current mode.
func (d *Device) SetFanMode(ctx context.Context, fan FanMode) error {
	d.logger.Info("fan mode change requested", "fan", fan)
	param, ok := fanParamByMode[d.state.HVACMode]
	if !ok {
		return &UnsupportedOperationError{Op: "set fan speed", Mode: d.state.HVACMode}
	}
	value, known := param.encode(fan)
	if !known {
		return NewDaikinError(fmt.Sprintf("unknown fan mode %q", fan), nil)
	}

	if err := d.writeAttributes(ctx, statusParam(param.container, param.name, value)); err != nil {
		return err
	}
	d.state.FanMode = fan
	return nil
}

// SetSwingMode writes both louvre axis registers for the current mode in a
// single request.
func (d *Device) SetSwingMode(ctx context.Context, swing SwingMode) error {
	d.logger.Info("swing mode change requested", "swing", swing)
	params, ok := swingParamsByMode[d.state.HVACMode]
	if !ok {
		return &UnsupportedOperationError{Op: "set swing", Mode: d.state.HVACMode}
	}

	verticalValue := swingAxisOn
	if swing == SwingOff || swing == SwingHorizontal {
		verticalValue = swingAxisOff
	}
	horizontalValue := swingAxisOn
	if swing == SwingOff || swing == SwingVertical {
		horizontalValue = swingAxisOff
	}

	err := d.writeAttributes(ctx,
		statusParam("e_3001", params.vertical, verticalValue),
		statusParam("e_3001", params.horizontal, horizontalValue),
	)
	if err != nil {
		return err
	}
	d.state.SwingMode = swing
	return nil
}
