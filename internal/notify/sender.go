package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nicholas-fedor/shoutrrr"
)

// Sender delivers a batch of reminders to one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, reminders []Reminder) error
}

// ShoutrrrSender posts a digest to every configured Shoutrrr URL
// (smtp://, slack://, telegram://...).
type ShoutrrrSender struct {
	URLs []string
	Now  func() time.Time

	send func(url, message string) error
}

// NewShoutrrrSender dispatches via the Shoutrrr library.
func NewShoutrrrSender(urls []string) *ShoutrrrSender {
	return &ShoutrrrSender{URLs: urls, Now: time.Now, send: shoutrrr.Send}
}

func (s *ShoutrrrSender) Name() string { return "shoutrrr" }

func (s *ShoutrrrSender) Send(ctx context.Context, reminders []Reminder) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	send := s.send
	if send == nil {
		send = shoutrrr.Send
	}
	message := Digest(reminders, now())

	var errs []error
	for i, url := range s.URLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := send(url, message); err != nil {
			// URLs carry credentials, report the position only
			errs = append(errs, fmt.Errorf("notify url #%d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSender publishes one JSON message per reminder.
type MQTTSender struct {
	Topic   string
	QoS     byte
	Timeout time.Duration

	client publisher
	close  func()
}

// NewMQTTSender connects to broker (tcp://host:1883).
func NewMQTTSender(broker, clientID, topic string) (*MQTTSender, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(false)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return &MQTTSender{
		Topic:   topic,
		QoS:     1,
		Timeout: 10 * time.Second,
		client:  client,
		close:   func() { client.Disconnect(250) },
	}, nil
}

func (s *MQTTSender) Name() string { return "mqtt" }

func (s *MQTTSender) Send(ctx context.Context, reminders []Reminder) error {
	for _, r := range reminders {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal reminder %s: %w", r.Plate, err)
		}
		token := s.client.Publish(s.Topic, s.QoS, false, payload)
		if !token.WaitTimeout(s.Timeout) {
			return fmt.Errorf("publish reminder %s: timed out", r.Plate)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish reminder %s: %w", r.Plate, err)
		}
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSender) Close() {
	if s.close != nil {
		s.close()
	}
}
