package bridge

import (
	"fmt"

	"github.com/samber/lo"

	daikin280 "github.com/jattkaim/daikin280"
)

// Home Assistant MQTT discovery payloads. One climate component plus the
// sensor and binary-sensor entities, all hanging off a shared device block
// keyed by the unit identity.

type deviceInfo struct {
	Identifiers      []string `json:"identifiers"`
	Name             string   `json:"name"`
	Manufacturer     string   `json:"manufacturer"`
	Model            string   `json:"model"`
	SWVersion        string   `json:"sw_version"`
	ConfigurationURL string   `json:"configuration_url,omitempty"`
}

type climateConfig struct {
	Name     string `json:"name"`
	UniqueID string `json:"unique_id"`

	Modes      []string `json:"modes"`
	FanModes   []string `json:"fan_modes"`
	SwingModes []string `json:"swing_modes"`

	ModeCommandTopic            string `json:"mode_command_topic"`
	ModeStateTopic              string `json:"mode_state_topic"`
	ModeStateTemplate           string `json:"mode_state_template"`
	TemperatureCommandTopic     string `json:"temperature_command_topic"`
	TemperatureStateTopic       string `json:"temperature_state_topic"`
	TemperatureStateTemplate    string `json:"temperature_state_template"`
	CurrentTemperatureTopic     string `json:"current_temperature_topic"`
	CurrentTemperatureTemplate  string `json:"current_temperature_template"`
	CurrentHumidityTopic        string `json:"current_humidity_topic,omitempty"`
	CurrentHumidityTemplate     string `json:"current_humidity_template,omitempty"`
	FanModeCommandTopic         string `json:"fan_mode_command_topic"`
	FanModeStateTopic           string `json:"fan_mode_state_topic"`
	FanModeStateTemplate        string `json:"fan_mode_state_template"`
	SwingModeCommandTopic       string `json:"swing_mode_command_topic"`
	SwingModeStateTopic         string `json:"swing_mode_state_topic"`
	SwingModeStateTemplate      string `json:"swing_mode_state_template"`
	PowerCommandTopic           string `json:"power_command_topic"`

	MinTemp  float64 `json:"min_temp"`
	MaxTemp  float64 `json:"max_temp"`
	TempStep float64 `json:"temp_step"`

	AvailabilityTopic string     `json:"availability_topic"`
	Device            deviceInfo `json:"device"`
}

type sensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic"`
	ValueTemplate     string     `json:"value_template"`
	DeviceClass       string     `json:"device_class,omitempty"`
	StateClass        string     `json:"state_class,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	Icon              string     `json:"icon,omitempty"`
	EntityCategory    string     `json:"entity_category,omitempty"`
	AvailabilityTopic string     `json:"availability_topic"`
	Device            deviceInfo `json:"device"`
}

type binarySensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic"`
	ValueTemplate     string     `json:"value_template"`
	DeviceClass       string     `json:"device_class,omitempty"`
	PayloadOn         string     `json:"payload_on"`
	PayloadOff        string     `json:"payload_off"`
	Icon              string     `json:"icon,omitempty"`
	EntityCategory    string     `json:"entity_category"`
	AvailabilityTopic string     `json:"availability_topic"`
	Device            deviceInfo `json:"device"`
}

// sensorDef describes one sensor entity derived from a state document key.
type sensorDef struct {
	key         string
	name        string
	deviceClass string
	stateClass  string
	unit        string
	icon        string
	diagnostic  bool
}

var sensorDefs = []sensorDef{
	{key: "current_temperature", name: "Temperature", deviceClass: "temperature", stateClass: "measurement", unit: "°C", icon: "mdi:thermometer"},
	{key: "outside_temperature", name: "Outside Temperature", deviceClass: "temperature", stateClass: "measurement", unit: "°C", icon: "mdi:thermometer-lines"},
	{key: "current_humidity", name: "Humidity", deviceClass: "humidity", stateClass: "measurement", unit: "%", icon: "mdi:water-percent"},
	{key: "energy_today", name: "Energy Today", deviceClass: "energy", stateClass: "total_increasing", unit: "kWh", icon: "mdi:flash"},
	{key: "runtime_today", name: "Runtime Today", deviceClass: "duration", stateClass: "total_increasing", unit: "min", icon: "mdi:timer-outline"},
	{key: "mode", name: "HVAC Mode", icon: "mdi:thermostat", diagnostic: true},
	{key: "fan_mode", name: "Fan Mode", icon: "mdi:fan", diagnostic: true},
	{key: "swing_mode", name: "Swing Mode", icon: "mdi:air-conditioner", diagnostic: true},
}

type binarySensorDef struct {
	key         string
	name        string
	deviceClass string
	icon        string
}

var binarySensorDefs = []binarySensorDef{
	{key: "running", name: "Running", deviceClass: "running", icon: "mdi:air-conditioner"},
	{key: "cooling", name: "Cooling", deviceClass: "cold", icon: "mdi:snowflake"},
	{key: "heating", name: "Heating", deviceClass: "heat", icon: "mdi:fire"},
}

func (b *Bridge) deviceBlock() deviceInfo {
	return deviceInfo{
		Identifiers:      []string{b.device.ID()},
		Name:             b.cfg.DeviceName,
		Manufacturer:     "Daikin",
		Model:            "Daikin Air Conditioner",
		SWVersion:        "2.8.0",
		ConfigurationURL: fmt.Sprintf("http://%s", b.device.DeviceIP()),
	}
}

func (b *Bridge) climateDiscovery() climateConfig {
	return climateConfig{
		Name:     b.cfg.DeviceName,
		UniqueID: fmt.Sprintf("%s_climate", b.slug),

		Modes: lo.Map(daikin280.HVACModes(), func(m daikin280.HVACMode, _ int) string {
			return string(m)
		}),
		FanModes: lo.Map(daikin280.FanModes(), func(m daikin280.FanMode, _ int) string {
			return string(m)
		}),
		SwingModes: lo.Map(daikin280.SwingModes(), func(m daikin280.SwingMode, _ int) string {
			return string(m)
		}),

		ModeCommandTopic:           b.commandTopic("mode"),
		ModeStateTopic:             b.stateTopic(),
		ModeStateTemplate:          "{{ value_json.mode }}",
		TemperatureCommandTopic:    b.commandTopic("temperature"),
		TemperatureStateTopic:      b.stateTopic(),
		TemperatureStateTemplate:   "{{ value_json.target_temperature }}",
		CurrentTemperatureTopic:    b.stateTopic(),
		CurrentTemperatureTemplate: "{{ value_json.current_temperature }}",
		CurrentHumidityTopic:       b.stateTopic(),
		CurrentHumidityTemplate:    "{{ value_json.current_humidity }}",
		FanModeCommandTopic:        b.commandTopic("fan"),
		FanModeStateTopic:          b.stateTopic(),
		FanModeStateTemplate:       "{{ value_json.fan_mode }}",
		SwingModeCommandTopic:      b.commandTopic("swing"),
		SwingModeStateTopic:        b.stateTopic(),
		SwingModeStateTemplate:     "{{ value_json.swing_mode }}",
		PowerCommandTopic:          b.commandTopic("power"),

		MinTemp:  daikin280.MinTemp,
		MaxTemp:  daikin280.MaxTemp,
		TempStep: 0.5,

		AvailabilityTopic: b.availabilityTopic(),
		Device:            b.deviceBlock(),
	}
}

func (b *Bridge) sensorDiscovery(def sensorDef) sensorConfig {
	cfg := sensorConfig{
		Name:              def.name,
		UniqueID:          fmt.Sprintf("%s_%s", b.slug, def.key),
		StateTopic:        b.stateTopic(),
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", def.key),
		DeviceClass:       def.deviceClass,
		StateClass:        def.stateClass,
		UnitOfMeasurement: def.unit,
		Icon:              def.icon,
		AvailabilityTopic: b.availabilityTopic(),
		Device:            b.deviceBlock(),
	}
	if def.diagnostic {
		cfg.EntityCategory = "diagnostic"
	}
	return cfg
}

func (b *Bridge) binarySensorDiscovery(def binarySensorDef) binarySensorConfig {
	return binarySensorConfig{
		Name:              def.name,
		UniqueID:          fmt.Sprintf("%s_%s", b.slug, def.key),
		StateTopic:        b.stateTopic(),
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", def.key),
		DeviceClass:       def.deviceClass,
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Icon:              def.icon,
		EntityCategory:    "diagnostic",
		AvailabilityTopic: b.availabilityTopic(),
		Device:            b.deviceBlock(),
	}
}
