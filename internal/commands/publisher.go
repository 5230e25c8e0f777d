package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/navgurukul/windows-rms-server/internal/config"
)

const (
	TypeSetWallpaper = "set_wallpaper"

	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
)

var ErrPublishTimeout = errors.New("command publish timed out")

// Command is pushed to a single device.
type Command struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Payload  map[string]any `json:"payload,omitempty"`
	IssuedAt time.Time      `json:"issued_at"`
}

// Publisher delivers commands to devices addressed by serial number.
type Publisher interface {
	Publish(ctx context.Context, serial string, cmd Command) error
	Close()
}

// New returns an MQTT publisher when enabled and a no-op publisher otherwise.
func New(cfg config.MQTTConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker address is required when enabled")
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		slog.Warn("mqtt broker not reachable yet; retrying in background", "broker", cfg.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", err)
	}

	return newMQTTPublisher(client, cfg), nil
}

// MQTTPublisher publishes JSON commands to {prefix}/{serial}/commands.
type MQTTPublisher struct {
	client         mqtt.Client
	topicPrefix    string
	qos            byte
	publishTimeout time.Duration
}

func newMQTTPublisher(client mqtt.Client, cfg config.MQTTConfig) *MQTTPublisher {
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = "fleet/devices"
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &MQTTPublisher{
		client:         client,
		topicPrefix:    prefix,
		qos:            cfg.QoS,
		publishTimeout: timeout,
	}
}

// Topic returns the command topic for a device.
func (p *MQTTPublisher) Topic(serial string) string {
	return p.topicPrefix + "/" + serial + "/commands"
}

func (p *MQTTPublisher) Publish(ctx context.Context, serial string, cmd Command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	timeout := p.publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	token := p.client.Publish(p.Topic(serial), p.qos, false, body)
	if !token.WaitTimeout(timeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// NoopPublisher drops commands; devices poll for their state instead.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, Command) error { return nil }

func (NoopPublisher) Close() {}

func brokerURL(broker string) string {
	broker = strings.TrimSpace(broker)
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
