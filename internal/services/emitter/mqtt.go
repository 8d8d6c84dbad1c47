package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/models"
)

const (
	eventQoS       = 1
	publishTimeout = 2 * time.Second
)

// MQTTEmitter publishes recorder events to an MQTT broker
type MQTTEmitter struct {
	cfg    *config.Config
	broker string
	client mqtt.Client

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
	connected bool
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Errors    uint64            `json:"errors"`
}

func NewMQTTEmitter(cfg *config.Config) *MQTTEmitter {
	return &MQTTEmitter{
		cfg:       cfg,
		broker:    BrokerURL(cfg.MQTTBroker),
		published: make(map[string]uint64),
	}
}

// BrokerURL adds the tcp scheme to a bare host:port
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Topic returns "<base>/<type>"
func Topic(base string, typ models.EventType) string {
	return strings.TrimSuffix(base, "/") + "/" + string(typ)
}

// Connect establishes the connection; the client reconnects on its own afterwards
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(e.broker)
	opts.SetClientID("motion-recorder-" + e.cfg.CameraID)
	if e.cfg.MQTTUser != "" {
		opts.SetUsername(e.cfg.MQTTUser)
		opts.SetPassword(e.cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.setConnected(true)
		log.Info().Str("broker", models.RedactURL(e.broker)).Msg("MQTT connection established")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.setConnected(false)
		log.Warn().Err(err).Str("broker", models.RedactURL(e.broker)).Msg("MQTT connection lost, will auto-reconnect")
	}

	e.client = mqtt.NewClient(opts)
	token := e.client.Connect()

	wait := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	if !token.WaitTimeout(wait) {
		e.abandon()
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		e.abandon()
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	e.setConnected(true)
	return nil
}

func (e *MQTTEmitter) Name() string { return "mqtt" }

// Handle publishes the event as JSON with QoS 1
func (e *MQTTEmitter) Handle(_ context.Context, event models.Event) error {
	if !e.isConnected() {
		e.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		e.countError()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := Topic(e.cfg.MQTTTopic, event.Type)
	token := e.client.Publish(topic, eventQoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	log.Debug().Str("topic", topic).Int("size", len(payload)).Msg("Event published to MQTT")
	return nil
}

// Disconnect closes the connection with a short grace period
func (e *MQTTEmitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
		log.Info().Msg("MQTT disconnected")
	}
	e.setConnected(false)
}

// abandon stops the background connect retries after a failed Connect
func (e *MQTTEmitter) abandon() {
	if e.client != nil {
		e.client.Disconnect(0)
		e.client = nil
	}
	e.setConnected(false)
}

func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Connected: e.connected, Published: published, Errors: e.errors}
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
