package daikin280

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// statusFixture is a full poll response from a unit cooling at 22.0°C with
// the fan on auto and the vertical louvre swinging.
const statusFixture = `{
	"responses": [
		{
			"fr": "/dsiot/edge/adr_0100.dgc_status",
			"rsc": 2000,
			"pc": {"pn": "dgc_status", "pch": [{"pn": "e_1002", "pch": [
				{"pn": "e_A002", "pch": [{"pn": "p_01", "pv": "01"}]},
				{"pn": "e_3001", "pch": [
					{"pn": "p_01", "pv": "0200"},
					{"pn": "p_02", "pv": "2C"},
					{"pn": "p_09", "pv": "0A00"},
					{"pn": "p_05", "pv": "0F0000"},
					{"pn": "p_06", "pv": "000000"}
				]},
				{"pn": "e_A00B", "pch": [
					{"pn": "p_01", "pv": "18"},
					{"pn": "p_02", "pv": "32"}
				]}
			]}]}
		},
		{
			"fr": "/dsiot/edge/adr_0200.dgc_status",
			"rsc": 2000,
			"pc": {"pn": "dgc_status", "pch": [{"pn": "e_1003", "pch": [
				{"pn": "e_A00D", "pch": [{"pn": "p_01", "pv": "2E"}]}
			]}]}
		},
		{
			"fr": "/dsiot/edge/adr_0100.i_power.week_power",
			"rsc": 2000,
			"pc": {"pn": "week_power", "pch": [
				{"pn": "today_runtime", "pv": 35},
				{"pn": "datas", "pv": [100, 200, 1500]}
			]}
		},
		{
			"fr": "/dsiot/edge.adp_i",
			"rsc": 2000,
			"pc": {"pn": "adp_i", "pch": [{"pn": "mac", "pv": "A1B2C3D4E5F6"}]}
		}
	]
}`

const writeAck = `{"responses": [{"fr": "/dsiot/edge/adr_0100.dgc_status", "rsc": 2004}]}`

func newTestDevice(t *testing.T, handler http.HandlerFunc) *Device {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(strings.TrimPrefix(srv.URL, "http://"), nil)
}

// writtenValue digs the pv written for the given path out of a serialized
// write payload.
func writtenValue(t *testing.T, body []byte, path ...string) string {
	t.Helper()
	var payload Payload
	assert.NoError(t, json.Unmarshal(body, &payload))

	for _, entry := range payload.Requests {
		node := entry.PC
		for _, pn := range path {
			if node == nil {
				break
			}
			node = node.child(pn)
		}
		if node != nil {
			return node.PV
		}
	}
	t.Fatalf("no value written at %v", path)
	return ""
}

func TestRefreshDecodesSnapshot(t *testing.T) {
	d := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(statusFixture))
	})

	assert.NoError(t, d.Refresh(context.Background()))

	state := d.State()
	assert.Equal(t, ModeCool, state.HVACMode)
	assert.Equal(t, FanAuto, state.FanMode)
	assert.Equal(t, SwingVertical, state.SwingMode)

	assert.NotNil(t, state.CurrentTemperature)
	assert.Equal(t, 24.0, *state.CurrentTemperature)
	assert.NotNil(t, state.OutsideTemperature)
	assert.Equal(t, 23.0, *state.OutsideTemperature)
	assert.NotNil(t, state.TargetTemperature)
	assert.Equal(t, 22.0, *state.TargetTemperature)
	assert.NotNil(t, state.CurrentHumidity)
	assert.Equal(t, 50, *state.CurrentHumidity)

	assert.Equal(t, 35, state.RuntimeTodayMin)
	assert.Equal(t, 1.5, state.EnergyTodayKWh)

	assert.Equal(t, "A1:B2:C3:D4:E5:F6", d.ID())
}

func TestRefreshPowerOff(t *testing.T) {
	// Power register 00 reports off regardless of the mode register, and no
	// setpoint is decoded for the off mode.
	fixture := strings.Replace(statusFixture,
		`{"pn": "e_A002", "pch": [{"pn": "p_01", "pv": "01"}]}`,
		`{"pn": "e_A002", "pch": [{"pn": "p_01", "pv": "00"}]}`, 1)
	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fixture))
	})

	assert.NoError(t, d.Refresh(context.Background()))

	state := d.State()
	assert.Equal(t, ModeOff, state.HVACMode)
	assert.Nil(t, state.TargetTemperature)
	assert.Equal(t, SwingOff, state.SwingMode)
	// Sensors keep reporting while the unit is off.
	assert.NotNil(t, state.CurrentTemperature)
}

func TestRefreshFailureKeepsState(t *testing.T) {
	var fail atomic.Bool
	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(statusFixture))
	})

	assert.NoError(t, d.Refresh(context.Background()))
	before := d.State()

	fail.Store(true)
	err := d.Refresh(context.Background())
	assert.Error(t, err)
	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.Equal(t, before, d.State())
}

func TestRefreshMalformedBody(t *testing.T) {
	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	err := d.Refresh(context.Background())
	var protocolErr *ProtocolError
	assert.ErrorAs(t, err, &protocolErr)
}

func TestIDFallbackWithoutMAC(t *testing.T) {
	// Strip the adapter entry so the MAC probe comes up empty.
	var doc map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(statusFixture), &doc))
	entries := doc["responses"].([]interface{})
	doc["responses"] = entries[:3]
	body, err := json.Marshal(doc)
	assert.NoError(t, err)

	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	})

	assert.NoError(t, d.Refresh(context.Background()))
	assert.Equal(t, "daikin_127_0_0_1", d.ID())
}

func TestIDResolvedOnce(t *testing.T) {
	// A unit that answers the adapter probe only on a later cycle must keep
	// the fallback identity it was first published under.
	var doc map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(statusFixture), &doc))
	doc["responses"] = doc["responses"].([]interface{})[:3]
	withoutMAC, err := json.Marshal(doc)
	assert.NoError(t, err)

	var macAnswers atomic.Bool
	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		if macAnswers.Load() {
			_, _ = w.Write([]byte(statusFixture))
		} else {
			_, _ = w.Write(withoutMAC)
		}
	})

	assert.NoError(t, d.Refresh(context.Background()))
	assert.Equal(t, "daikin_127_0_0_1", d.ID())

	macAnswers.Store(true)
	assert.NoError(t, d.Refresh(context.Background()))
	assert.Equal(t, "daikin_127_0_0_1", d.ID())
}

func TestConnect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(statusFixture))
	}))
	t.Cleanup(srv.Close)

	d, err := Connect(context.Background(), strings.TrimPrefix(srv.URL, "http://"), nil)
	assert.NoError(t, err)
	assert.Equal(t, ModeCool, d.State().HVACMode)
	assert.Equal(t, "A1:B2:C3:D4:E5:F6", d.ID())
}

func TestConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := Connect(context.Background(), strings.TrimPrefix(srv.URL, "http://"), nil)
	assert.Error(t, err)
}

func TestTurnOffUpdatesState(t *testing.T) {
	var lastBody []byte
	d := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		lastBody = readBody(t, r)
		_, _ = w.Write([]byte(writeAck))
	})
	d.state.HVACMode = ModeCool

	assert.NoError(t, d.TurnOff(context.Background()))
	assert.Equal(t, ModeOff, d.State().HVACMode)
	assert.Equal(t, "00", writtenValue(t, lastBody, "e_1002", "e_A002", "p_01"))
}

func TestSetHVACMode(t *testing.T) {
	var bodies [][]byte
	d := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		bodies = append(bodies, readBody(t, r))
		_, _ = w.Write([]byte(writeAck))
	})

	assert.NoError(t, d.SetHVACMode(context.Background(), ModeHeat))
	assert.Equal(t, ModeHeat, d.State().HVACMode)

	// Power on first, then the mode register.
	assert.Len(t, bodies, 2)
	assert.Equal(t, "01", writtenValue(t, bodies[0], "e_1002", "e_A002", "p_01"))
	assert.Equal(t, "0100", writtenValue(t, bodies[1], "e_1002", "e_3001", "p_01"))
}

func TestSetHVACModeOff(t *testing.T) {
	var calls atomic.Int32
	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(writeAck))
	})
	d.state.HVACMode = ModeCool

	assert.NoError(t, d.SetHVACMode(context.Background(), ModeOff))
	assert.Equal(t, ModeOff, d.State().HVACMode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSetFanMode(t *testing.T) {
	var lastBody []byte
	d := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		lastBody = readBody(t, r)
		_, _ = w.Write([]byte(writeAck))
	})
	d.state.HVACMode = ModeCool

	assert.NoError(t, d.SetFanMode(context.Background(), FanLevel3))
	assert.Equal(t, FanLevel3, d.State().FanMode)
	assert.Equal(t, "0500", writtenValue(t, lastBody, "e_1002", "e_3001", "p_09"))
}

func TestSetFanModeAutoUsesE3003(t *testing.T) {
	var lastBody []byte
	d := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		lastBody = readBody(t, r)
		_, _ = w.Write([]byte(writeAck))
	})
	d.state.HVACMode = ModeAuto

	assert.NoError(t, d.SetFanMode(context.Background(), FanQuiet))
	assert.Equal(t, "0B", writtenValue(t, lastBody, "e_1002", "e_3003", "p_2A"))
}

func TestSetFanModeUnsupportedInDry(t *testing.T) {
	var calls atomic.Int32
	d := newTestDevice(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(writeAck))
	})
	d.state.HVACMode = ModeDry

	err := d.SetFanMode(context.Background(), FanLevel1)
	var unsupported *UnsupportedOperationError
	assert.ErrorAs(t, err, &unsupported)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSetSwingMode(t *testing.T) {
	tests := []struct {
		name       string
		mode       HVACMode
		swing      SwingMode
		vertical   string
		horizontal string
		vParam     string
		hParam     string
	}{
		{
			name: "vertical in cool", mode: ModeCool, swing: SwingVertical,
			vertical: swingAxisOn, horizontal: swingAxisOff, vParam: "p_05", hParam: "p_06",
		},
		{
			name: "both in cool", mode: ModeCool, swing: SwingBoth,
			vertical: swingAxisOn, horizontal: swingAxisOn, vParam: "p_05", hParam: "p_06",
		},
		{
			name: "off in heat", mode: ModeHeat, swing: SwingOff,
			vertical: swingAxisOff, horizontal: swingAxisOff, vParam: "p_07", hParam: "p_08",
		},
		{
			name: "horizontal in heat", mode: ModeHeat, swing: SwingHorizontal,
			vertical: swingAxisOff, horizontal: swingAxisOn, vParam: "p_07", hParam: "p_08",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bodies [][]byte
			d := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
				bodies = append(bodies, readBody(t, r))
				_, _ = w.Write([]byte(writeAck))
			})
			d.state.HVACMode = tt.mode

			assert.NoError(t, d.SetSwingMode(context.Background(), tt.swing))
			assert.Equal(t, tt.swing, d.State().SwingMode)

			// Both axes travel in a single request.
			assert.Len(t, bodies, 1)
			assert.Equal(t, tt.vertical, writtenValue(t, bodies[0], "e_1002", "e_3001", tt.vParam))
			assert.Equal(t, tt.horizontal, writtenValue(t, bodies[0], "e_1002", "e_3001", tt.hParam))
		})
	}
}

func TestDecodeSwing(t *testing.T) {
	build := func(vertical, horizontal string) map[string]interface{} {
		body := strings.Replace(statusFixture, `{"pn": "p_05", "pv": "0F0000"}`,
			`{"pn": "p_05", "pv": "`+vertical+`"}`, 1)
		body = strings.Replace(body, `{"pn": "p_06", "pv": "000000"}`,
			`{"pn": "p_06", "pv": "`+horizontal+`"}`, 1)
		return decodeDoc(t, body)
	}

	tests := []struct {
		name       string
		vertical   string
		horizontal string
		expected   SwingMode
	}{
		{name: "both idle", vertical: "000000", horizontal: "000000", expected: SwingOff},
		{name: "vertical", vertical: "0F0000", horizontal: "000000", expected: SwingVertical},
		{name: "horizontal", vertical: "000000", horizontal: "0F0000", expected: SwingHorizontal},
		{name: "both", vertical: "0F0000", horizontal: "0F0000", expected: SwingBoth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeSwing(build(tt.vertical, tt.horizontal), ModeCool))
		})
	}
}

func readBody(t *testing.T, r *http.Request) []byte {
	t.Helper()
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	assert.NoError(t, err)
	return body
}
