// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/latest"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

type eventKind int

const (
	gpsEvent eventKind = iota
	encoderEvent
	selectEvent
)

type event struct {
	kind    eventKind
	sample  pose.PointStamped // gpsEvent and encoderEvent
	payload []byte            // selectEvent only
}

type publisher[T any] interface {
	Publish(T) error
}

// Node owns a feedback.Selected and applies sensor events, selection
// requests and publish ticks to it from a single goroutine.
type Node struct {
	sel      *feedback.Selected
	gps      *latest.Value[pose.PointStamped]
	encoder  *latest.Value[pose.PointStamped]
	reconf   *reconfigure.Server
	events   chan event
	interval time.Duration

	candidates publisher[feedback.Candidates] // optional
	state      publisher[reconfigure.State]   // optional
}

// gps and encoder must be the caches sel reads from; the node writes them
// just before the matching update.
func newNode(sel *feedback.Selected, gps, encoder *latest.Value[pose.PointStamped], reconf *reconfigure.Server, interval time.Duration, queueSize int) *Node {
	n := &Node{
		sel:      sel,
		gps:      gps,
		encoder:  encoder,
		reconf:   reconf,
		events:   make(chan event, queueSize),
		interval: interval,
	}
	reconf.SetCallback(sel.Reconfigure)
	return n
}

// NotifyGPS schedules a GPS+compass update with fix p. Safe to call from any
// goroutine.
func (n *Node) NotifyGPS(p pose.PointStamped) bool {
	return n.post(event{kind: gpsEvent, sample: p})
}

// NotifyEncoder schedules an encoder update with sample p. Safe to call from
// any goroutine.
func (n *Node) NotifyEncoder(p pose.PointStamped) bool {
	return n.post(event{kind: encoderEvent, sample: p})
}

// RequestSelect schedules a selection request. payload is a JSON object
// {"feedback": n}, a bare index or a feedback name.
func (n *Node) RequestSelect(payload []byte) bool {
	return n.post(event{kind: selectEvent, payload: append([]byte(nil), payload...)})
}

// post never blocks; events that do not fit in the queue are dropped.
func (n *Node) post(ev event) bool {
	select {
	case n.events <- ev:
		return true
	default:
		log.Printf("feedback: event queue full, dropping event %d", ev.kind)
		return false
	}
}

// Run processes events and publishes on every tick until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	n.publishState(n.reconf.State())

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("feedback: shutting down")
			return nil
		case ev := <-n.events:
			n.handle(ev)
		case <-ticker.C:
			n.tick()
		}
	}
}

func (n *Node) handle(ev event) {
	switch ev.kind {
	// Each update sees its own sample, even when several queued up.
	case gpsEvent:
		n.gps.Set(ev.sample)
		n.sel.UpdateFromGPS()
	case encoderEvent:
		n.encoder.Set(ev.sample)
		n.sel.UpdateFromEncoder()
	case selectEvent:
		n.handleSelect(ev.payload)
	}
}

func (n *Node) handleSelect(payload []byte) {
	cfg, err := parseSelectRequest(payload)
	if err != nil {
		log.Printf("feedback: bad select request %q: %v", payload, err)
		return
	}
	st, err := n.reconf.Apply(cfg)
	if err != nil {
		log.Printf("feedback: rejected select request: %v", err)
		return
	}
	n.publishState(st)
}

func (n *Node) tick() {
	if err := n.sel.Publish(); err != nil {
		log.Printf("feedback: publish error (selected): %v", err)
	}
	if n.candidates != nil {
		if err := n.candidates.Publish(n.sel.Candidates()); err != nil {
			log.Printf("feedback: publish error (candidates): %v", err)
		}
	}
}

func (n *Node) publishState(st reconfigure.State) {
	if n.state == nil {
		return
	}
	if err := n.state.Publish(st); err != nil {
		log.Printf("feedback: publish error (select state): %v", err)
	}
}

// parseSelectRequest accepts {"feedback": n}, "n" or a feedback name.
// Range checking is left to reconfigure.Server.
func parseSelectRequest(payload []byte) (reconfigure.Config, error) {
	payload = bytes.TrimSpace(payload)

	if bytes.HasPrefix(payload, []byte("{")) {
		var req struct {
			Feedback *int `json:"feedback"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return reconfigure.Config{}, err
		}
		if req.Feedback == nil {
			return reconfigure.Config{}, fmt.Errorf("missing \"feedback\" field")
		}
		return reconfigure.Config{Feedback: *req.Feedback}, nil
	}

	s := string(bytes.Trim(payload, `"`))
	if v, err := strconv.Atoi(s); err == nil {
		return reconfigure.Config{Feedback: v}, nil
	}
	f, err := feedback.Parse(s)
	if err != nil {
		return reconfigure.Config{}, err
	}
	return reconfigure.Config{Feedback: int(f)}, nil
}
