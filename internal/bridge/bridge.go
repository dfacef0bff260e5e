package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	daikin280 "github.com/jattkaim/daikin280"
	"github.com/jattkaim/daikin280/internal/config"
	"github.com/jattkaim/daikin280/internal/mqtt"
)

// Bridge exposes one device over MQTT with Home Assistant discovery: it
// publishes entity configs once, republishes a state document after every
// refresh, and drives the device from command topics. Device calls are
// serialized behind a mutex; the unit cannot take overlapping requests.
type Bridge struct {
	device *daikin280.Device
	mqtt   *mqtt.Client
	cfg    *config.Config
	logger *zap.Logger

	slug string
	cron *cron.Cron
	mu   sync.Mutex
}

func New(device *daikin280.Device, client *mqtt.Client, cfg *config.Config, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.L()
	}
	return &Bridge{
		device: device,
		mqtt:   client,
		cfg:    cfg,
		logger: logger,
		slug:   deviceSlug(device.ID()),
	}
}

func deviceSlug(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, ":", ""))
}

// AvailabilityTopic is the availability topic the bridge publishes for the
// given device identity. The broker-side last-will message must target the
// same topic, so callers wiring the MQTT client derive it from here.
func AvailabilityTopic(topicPrefix, deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", topicPrefix, deviceSlug(deviceID))
}

func (b *Bridge) baseTopic() string {
	return fmt.Sprintf("%s/%s", b.cfg.MQTT.TopicPrefix, b.slug)
}

func (b *Bridge) stateTopic() string {
	return b.baseTopic() + "/state"
}

func (b *Bridge) availabilityTopic() string {
	return AvailabilityTopic(b.cfg.MQTT.TopicPrefix, b.device.ID())
}

func (b *Bridge) commandTopic(name string) string {
	return fmt.Sprintf("%s/set/%s", b.baseTopic(), name)
}

func (b *Bridge) discoveryTopic(component, uniqueID string) string {
	return fmt.Sprintf("%s/%s/%s/config", b.cfg.MQTT.DiscoveryPrefix, component, uniqueID)
}

// Start connects to the broker, announces the entities, wires the command
// topics, performs an initial refresh, and schedules the poll cycle.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.mqtt.Connect(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	if err := b.publishDiscovery(); err != nil {
		return fmt.Errorf("publish discovery: %w", err)
	}
	if err := b.subscribeCommands(ctx); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}

	b.refresh(ctx)

	b.cron = cron.New()
	if _, err := b.cron.AddFunc(fmt.Sprintf("@every %s", b.cfg.PollInterval), func() {
		b.refresh(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}
	b.cron.Start()
	b.logger.Info("bridge started",
		zap.String("device", b.device.ID()),
		zap.Duration("poll_interval", b.cfg.PollInterval))
	return nil
}

// Stop halts polling and marks the device unavailable before disconnecting.
func (b *Bridge) Stop() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}
	if err := b.mqtt.Publish(b.availabilityTopic(), true, []byte("offline")); err != nil {
		b.logger.Warn("failed to publish offline availability", zap.Error(err))
	}
	b.mqtt.Disconnect()
}

func (b *Bridge) publishDiscovery() error {
	if err := b.publishJSON(b.discoveryTopic("climate", fmt.Sprintf("%s_climate", b.slug)), b.climateDiscovery()); err != nil {
		return err
	}
	for _, def := range sensorDefs {
		topic := b.discoveryTopic("sensor", fmt.Sprintf("%s_%s", b.slug, def.key))
		if err := b.publishJSON(topic, b.sensorDiscovery(def)); err != nil {
			return err
		}
	}
	for _, def := range binarySensorDefs {
		topic := b.discoveryTopic("binary_sensor", fmt.Sprintf("%s_%s", b.slug, def.key))
		if err := b.publishJSON(topic, b.binarySensorDiscovery(def)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) publishJSON(topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.mqtt.Publish(topic, true, body)
}

// refresh runs one poll cycle. On failure the previous state document is
// left in place and the availability topic flips to offline.
func (b *Bridge) refresh(ctx context.Context) {
	b.mu.Lock()
	err := b.device.Refresh(ctx)
	var state daikin280.State
	var adjustment string
	if err == nil {
		state = b.device.State()
		adjustment = b.device.AdjustmentMessage()
	}
	b.mu.Unlock()

	if err != nil {
		b.logger.Error("refresh failed", zap.Error(err))
		if pubErr := b.mqtt.Publish(b.availabilityTopic(), true, []byte("offline")); pubErr != nil {
			b.logger.Warn("failed to publish availability", zap.Error(pubErr))
		}
		return
	}
	b.publishState(state, adjustment)
}

// stateDoc is the retained per-device state document. The binary entity
// fields are precomputed so the discovery templates stay trivial.
type stateDoc struct {
	Mode               string   `json:"mode"`
	FanMode            string   `json:"fan_mode"`
	SwingMode          string   `json:"swing_mode"`
	CurrentTemperature *float64 `json:"current_temperature,omitempty"`
	OutsideTemperature *float64 `json:"outside_temperature,omitempty"`
	TargetTemperature  *float64 `json:"target_temperature,omitempty"`
	CurrentHumidity    *int     `json:"current_humidity,omitempty"`
	EnergyToday        float64  `json:"energy_today"`
	RuntimeToday       int      `json:"runtime_today"`
	Running            string   `json:"running"`
	Cooling            string   `json:"cooling"`
	Heating            string   `json:"heating"`
	Adjustment         string   `json:"temperature_adjustment,omitempty"`
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func (b *Bridge) publishState(state daikin280.State, adjustment string) {
	doc := stateDoc{
		Mode:               string(state.HVACMode),
		FanMode:            string(state.FanMode),
		SwingMode:          string(state.SwingMode),
		CurrentTemperature: state.CurrentTemperature,
		OutsideTemperature: state.OutsideTemperature,
		TargetTemperature:  state.TargetTemperature,
		CurrentHumidity:    state.CurrentHumidity,
		EnergyToday:        state.EnergyTodayKWh,
		RuntimeToday:       state.RuntimeTodayMin,
		Running:            onOff(state.HVACMode != daikin280.ModeOff),
		Cooling:            onOff(state.HVACMode == daikin280.ModeCool),
		Heating:            onOff(state.HVACMode == daikin280.ModeHeat),
		Adjustment:         adjustment,
	}

	if err := b.mqtt.Publish(b.availabilityTopic(), true, []byte("online")); err != nil {
		b.logger.Warn("failed to publish availability", zap.Error(err))
	}
	if err := b.publishJSON(b.stateTopic(), doc); err != nil {
		b.logger.Error("failed to publish state", zap.Error(err))
	}
}

func (b *Bridge) subscribeCommands(ctx context.Context) error {
	commands := map[string]func(context.Context, string) error{
		"temperature": func(ctx context.Context, payload string) error {
			celsius, err := strconv.ParseFloat(payload, 64)
			if err != nil {
				return fmt.Errorf("invalid temperature %q: %w", payload, err)
			}
			return b.device.SetTemperature(ctx, celsius)
		},
		"mode": func(ctx context.Context, payload string) error {
			return b.device.SetHVACMode(ctx, daikin280.HVACMode(payload))
		},
		"fan": func(ctx context.Context, payload string) error {
			return b.device.SetFanMode(ctx, daikin280.FanMode(payload))
		},
		"swing": func(ctx context.Context, payload string) error {
			return b.device.SetSwingMode(ctx, daikin280.SwingMode(payload))
		},
		"power": func(ctx context.Context, payload string) error {
			if strings.EqualFold(payload, "ON") {
				return b.device.TurnOn(ctx)
			}
			return b.device.TurnOff(ctx)
		},
	}

	for name, apply := range commands {
		name, apply := name, apply
		handler := func(_ paho_mqtt.Client, msg paho_mqtt.Message) {
			b.handleCommand(ctx, name, apply, msg.Payload())
		}
		if err := b.mqtt.Subscribe(b.commandTopic(name), handler); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) handleCommand(ctx context.Context, name string, apply func(context.Context, string) error, payload []byte) {
	value := strings.TrimSpace(string(payload))
	b.logger.Info("command received", zap.String("command", name), zap.String("payload", value))

	b.mu.Lock()
	err := apply(ctx, value)
	var state daikin280.State
	var adjustment string
	if err == nil {
		state = b.device.State()
		adjustment = b.device.AdjustmentMessage()
	}
	b.mu.Unlock()

	if err != nil {
		b.logger.Error("command failed",
			zap.String("command", name),
			zap.String("payload", value),
			zap.Error(err))
		return
	}
	b.publishState(state, adjustment)
}
