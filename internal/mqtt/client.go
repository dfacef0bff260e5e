package mqtt

import (
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// Config carries broker connection settings.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// WillTopic/WillPayload, when set, are registered as the broker-side
	// last-will message.
	WillTopic   string
	WillPayload string
}

// Client is a thin wrapper around the paho client with blocking helpers.
type Client struct {
	client paho_mqtt.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.L()
	}

	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	if cfg.WillTopic != "" {
		opts.SetWill(cfg.WillTopic, cfg.WillPayload, 1, true)
	}
	opts.SetOnConnectHandler(func(paho_mqtt.Client) {
		logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho_mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	return &Client{
		client: paho_mqtt.NewClient(opts),
		logger: logger,
	}
}

func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("unable to connect in time")
	}
	return token.Error()
}

func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	token := c.client.Publish(topic, 1, retained, payload)
	token.Wait()
	return token.Error()
}

func (c *Client) Subscribe(topic string, handler paho_mqtt.MessageHandler) error {
	token := c.client.Subscribe(topic, 1, handler)
	token.Wait()
	return token.Error()
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
