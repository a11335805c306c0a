// Package observer captures MQTT traffic published while a scenario runs.
package observer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const connectTimeout = 10 * time.Second

// CapturedMessage represents a single MQTT message captured during observation
type CapturedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Retained  bool        `json:"retained"`
}

// Observer captures every message under a topic filter
type Observer struct {
	client   pahomqtt.Client
	broker   string
	filter   string
	logger   *slog.Logger
	mu       sync.RWMutex
	messages []CapturedMessage
}

// NewObserver creates a new MQTT observer for filter, e.g. "survey/#"
func NewObserver(broker, filter string, logger *slog.Logger) *Observer {
	return &Observer{
		broker: broker,
		filter: filter,
		logger: logger,
	}
}

// Start connects and subscribes
func (o *Observer) Start() error {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(o.broker)
	opts.SetClientID(fmt.Sprintf("match-e2e-observer-%d", time.Now().UnixNano()))
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(c pahomqtt.Client, err error) {
		o.logger.Warn("Observer connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		token := c.Subscribe(o.filter, 0, o.handle)
		if !token.WaitTimeout(connectTimeout) || token.Error() != nil {
			o.logger.Error("Observer failed to subscribe", "filter", o.filter, "error", token.Error())
			return
		}
		o.logger.Info("Observer subscribed", "filter", o.filter)
	})

	o.client = pahomqtt.NewClient(opts)
	token := o.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", o.broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

func (o *Observer) handle(c pahomqtt.Client, msg pahomqtt.Message) {
	o.Record(msg.Topic(), msg.Payload(), msg.Retained())
}

// Record stores a message, decoding JSON payloads when possible
func (o *Observer) Record(topic string, raw []byte, retained bool) {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		payload = string(raw)
	}

	o.mu.Lock()
	o.messages = append(o.messages, CapturedMessage{
		Timestamp: time.Now(),
		Topic:     topic,
		Payload:   payload,
		Retained:  retained,
	})
	o.mu.Unlock()

	o.logger.Debug("Captured message", "topic", topic, "bytes", len(raw))
}

// Messages returns a copy of everything captured so far
func (o *Observer) Messages() []CapturedMessage {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]CapturedMessage, len(o.messages))
	copy(out, o.messages)
	return out
}

// SaveCapture writes all captured messages to a JSON file
func (o *Observer) SaveCapture(filename string) error {
	data, err := json.MarshalIndent(o.Messages(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}

// Stop disconnects from the broker
func (o *Observer) Stop() {
	if o.client != nil && o.client.IsConnected() {
		o.client.Disconnect(250)
	}
}
