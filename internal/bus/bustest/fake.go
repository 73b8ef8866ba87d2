// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bustest provides an in-memory bus.Broker for tests.
package bustest

import (
	"encoding/json"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Message is one recorded publish.
type Message struct {
	Topic    string
	Retained bool
	Payload  []byte
}

// Broker records publishes and routes Deliver calls to subscribers.
// Publishing does not loop back to subscribers.
type Broker struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	published    []Message
	disconnected bool

	// PublishErr and SubscribeErr, when set, are returned by the tokens.
	PublishErr   error
	SubscribeErr error
}

// NewBroker returns an empty Broker.
func NewBroker() *Broker {
	return &Broker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (b *Broker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = append([]byte(nil), p...)
	case string:
		data = []byte(p)
	}
	if b.PublishErr == nil {
		b.published = append(b.published, Message{Topic: topic, Retained: retained, Payload: data})
	}
	return &token{err: b.PublishErr}
}

func (b *Broker) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.SubscribeErr == nil {
		b.handlers[topic] = callback
	}
	return &token{err: b.SubscribeErr}
}

func (b *Broker) Disconnect(quiesce uint) {
	b.mu.Lock()
	b.disconnected = true
	b.mu.Unlock()
}

// Deliver hands payload to the subscriber of topic, if any, on the calling
// goroutine. It reports whether a subscriber was found.
func (b *Broker) Deliver(topic string, payload []byte) bool {
	b.mu.Lock()
	h, ok := b.handlers[topic]
	b.mu.Unlock()
	if !ok {
		return false
	}
	h(nil, &message{topic: topic, payload: payload})
	return true
}

// DeliverJSON marshals v and delivers it to topic.
func (b *Broker) DeliverJSON(topic string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b.Deliver(topic, payload)
}

// Subscribed reports whether topic has a subscriber.
func (b *Broker) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[topic]
	return ok
}

// Published returns the messages published on topic, oldest first.
func (b *Broker) Published(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Message
	for _, m := range b.published {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Last decodes the most recent payload published on topic into v and
// reports whether there was one.
func (b *Broker) Last(topic string, v any) bool {
	msgs := b.Published(topic)
	if len(msgs) == 0 {
		return false
	}
	return json.Unmarshal(msgs[len(msgs)-1].Payload, v) == nil
}

// Disconnected reports whether Disconnect was called.
func (b *Broker) Disconnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disconnected
}

type token struct {
	err error
}

func (t *token) Wait() bool                     { return true }
func (t *token) WaitTimeout(time.Duration) bool { return true }
func (t *token) Error() error                   { return t.err }

func (t *token) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}
