// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bus moves JSON messages over MQTT.
package bus

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Broker is the subset of mqtt.Client used by Client.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Disconnect(quiesce uint)
}

var _ Broker = mqtt.Client(nil)

// Client publishes and subscribes JSON payloads at QoS 0.
type Client struct {
	b Broker
}

// Connect dials the broker and returns a connected Client.
func Connect(broker, clientID string) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("bus: %s connected to MQTT broker at %s", clientID, broker)
	return New(client), nil
}

// New wraps an already connected broker.
func New(b Broker) *Client {
	return &Client{b: b}
}

// Publish marshals v as JSON and publishes it on topic.
func (c *Client) Publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	return c.PublishRaw(topic, retained, payload)
}

// PublishRaw publishes payload on topic as is.
func (c *Client) PublishRaw(topic string, retained bool, payload []byte) error {
	token := c.b.Publish(topic, 0, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// SubscribeRaw calls fn with the payload of every message on topic.
// fn runs on the MQTT client's goroutine and must not block.
func (c *Client) SubscribeRaw(topic string, fn func(payload []byte)) error {
	token := c.b.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fn(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	log.Printf("bus: subscribed to %s", topic)
	return nil
}

// Subscribe decodes every message on topic into a T and calls fn with it.
// Messages that fail to decode are logged and dropped.
func Subscribe[T any](c *Client, topic string, fn func(T)) error {
	return c.SubscribeRaw(topic, func(payload []byte) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			log.Printf("bus: %s unmarshal error: %v", topic, err)
			return
		}
		fn(v)
	})
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.b.Disconnect(250)
}

// Topic publishes values of one type on a fixed topic.
type Topic[T any] struct {
	c        *Client
	name     string
	retained bool
}

// NewTopic returns a Topic publishing on name.
func NewTopic[T any](c *Client, name string, retained bool) *Topic[T] {
	return &Topic[T]{c: c, name: name, retained: retained}
}

// Name returns the topic name.
func (t *Topic[T]) Name() string {
	return t.name
}

// Publish sends v on the topic.
func (t *Topic[T]) Publish(v T) error {
	return t.c.Publish(t.name, t.retained, v)
}
