package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/saaga0h/candidate-match/pkg/config"
)

const (
	publishTimeout = 5 * time.Second
	statusOnline   = "online"
	statusOffline  = "offline"
)

// mqttClient implements the Client interface using the Paho MQTT client
type mqttClient struct {
	client      pahomqtt.Client
	cfg         *config.Config
	logger      *slog.Logger
	statusTopic string
}

// NewClient creates a new MQTT client. The broker keeps a retained
// online/offline status for the service on StatusTopic, with "offline" set
// as the last will.
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	statusTopic := StatusTopic(cfg.ServiceName)

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTAddress())

	if cfg.MQTTClientID != "" {
		opts.SetClientID(cfg.MQTTClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("%s-%d", cfg.ServiceName, time.Now().Unix()))
	}
	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetWill(statusTopic, statusOffline, 1, true)

	opts.OnConnect = func(c pahomqtt.Client) {
		logger.Info("Connected to MQTT broker", "broker", cfg.MQTTAddress())
		// runs on every reconnect as well, restoring the retained status
		token := c.Publish(statusTopic, 1, true, statusOnline)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			logger.Warn("Failed to publish online status", "topic", statusTopic, "error", token.Error())
		}
	}
	opts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	}
	opts.OnReconnecting = func(c pahomqtt.Client, opts *pahomqtt.ClientOptions) {
		logger.Info("MQTT reconnecting...")
	}

	return &mqttClient{
		client:      pahomqtt.NewClient(opts),
		cfg:         cfg,
		logger:      logger,
		statusTopic: statusTopic,
	}
}

// Connect establishes a connection to the MQTT broker, giving up when ctx is done
func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.cfg.MQTTAddress())

	token := m.client.Connect()

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect marks the service offline and closes the connection
func (m *mqttClient) Disconnect() {
	m.logger.Info("Disconnecting from MQTT broker")
	if m.client.IsConnected() {
		m.client.Publish(m.statusTopic, 1, true, statusOffline).WaitTimeout(publishTimeout)
	}
	m.client.Disconnect(250) // 250ms grace period
}

// Publish publishes a message and waits up to publishTimeout for the broker
func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	m.logger.Debug("Published message", "topic", topic, "size", len(payload))
	return nil
}

// IsConnected returns whether the client is currently connected
func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}
