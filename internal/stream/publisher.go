package stream

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ivlev/animstage/internal/config"
	"github.com/ivlev/animstage/internal/scene"
)

// Publisher receives the poses of every played frame
type Publisher interface {
	PublishFrame(frame int, objs []scene.ObjectView) error
	Close() error
}

// NopPublisher drops every frame
type NopPublisher struct{}

func (NopPublisher) PublishFrame(int, []scene.ObjectView) error { return nil }
func (NopPublisher) Close() error                               { return nil }

const publishTimeout = time.Second

// MQTTPublisher streams pose frames as binary MQTT messages
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// Connect opens a connection to the configured broker
func Connect(cfg config.Mqtt) (*MQTTPublisher, error) {
	options := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			log.WithField("broker", cfg.URL).Info("Connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("Connection lost")
		})
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}

	return NewMQTTPublisher(client, cfg.Topic), nil
}

// NewMQTTPublisher wraps an already connected client
func NewMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

// PublishFrame sends the frame at QoS 0; a late pose is worth nothing
func (p *MQTTPublisher) PublishFrame(frame int, objs []scene.ObjectView) error {
	b, err := NewPoseFrame(frame, objs).MarshalBinary()
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 0, false, b)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish frame %d: timed out", frame)
	}
	return token.Error()
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
