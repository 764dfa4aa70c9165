// Package publish pushes emitted fix snapshots to an MQTT broker as compact
// JSON, retained so late subscribers see the latest fix immediately.
package publish

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gnsswatch/internal/fix"
	"gnsswatch/internal/render"
)

type Config struct {
	Broker   string // e.g. "tcp://localhost:1883"
	Topic    string
	ClientID string
}

type Publisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker. Failing here is fatal to startup: an explicitly
// configured broker that is unreachable is an operator problem, not noise.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Topic == "" {
		cfg.Topic = "gnsswatch/fix"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "gnsswatch"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	log.Printf("mqtt connected broker=%s topic=%s", cfg.Broker, cfg.Topic)
	return &Publisher{client: client, topic: cfg.Topic}, nil
}

// Publish sends one fix snapshot. Errors are returned for the caller to log;
// a failed publish never stops the read loop.
func (p *Publisher) Publish(r fix.Record) error {
	payload, err := render.JSON(r)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 0, true, []byte(payload))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt publish: %w", token.Error())
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
