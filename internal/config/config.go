package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the bridge configuration, populated from the environment and
// optionally overridden by CLI flags.
type Config struct {
	DeviceAddress string        `env:"DAIKIN_ADDR"`
	DeviceName    string        `env:"DAIKIN_NAME" envDefault:"Daikin AC"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"60s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`

	MQTT MQTTConfig `envPrefix:"MQTT_"`
}

type MQTTConfig struct {
	Broker          string `env:"BROKER" envDefault:"tcp://localhost:1883"`
	ClientID        string `env:"CLIENT_ID" envDefault:"daikin-bridge"`
	Username        string `env:"USERNAME"`
	Password        string `env:"PASSWORD"`
	TopicPrefix     string `env:"TOPIC_PREFIX" envDefault:"daikin280"`
	DiscoveryPrefix string `env:"DISCOVERY_PREFIX" envDefault:"homeassistant"`
}

// FromEnv parses the configuration out of the environment.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c.DeviceAddress == "" {
		return errors.New("device address is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	return nil
}
