// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/state_feedback/internal/bus"
	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/latest"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

// RunStateFeedback subscribes to the GPS, encoder and compass feeds and
// publishes the selected feedback pose until ctx is done.
func RunStateFeedback(ctx context.Context, cfg *config.Config) error {
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDFeedback)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := newStateFeedbackNode(client, cfg)
	if err != nil {
		return err
	}

	log.Printf("feedback: publishing %s every %dms on %s",
		n.sel.Current(), cfg.FeedbackPublishInterval, cfg.TopicFeedbackSelected)
	return n.Run(ctx)
}

func newStateFeedbackNode(client *bus.Client, cfg *config.Config) (*Node, error) {
	var (
		gpsPose  latest.Value[pose.PointStamped]
		encoPose latest.Value[pose.PointStamped]
		compass  latest.Value[pose.Heading]
	)

	sel := feedback.New(feedback.Sources{
		GPS:     &gpsPose,
		Encoder: &encoPose,
		Compass: &compass,
	}, bus.NewTopic[pose.VehicleState](client, cfg.TopicFeedbackSelected, false))

	reconf, err := reconfigure.NewServer(reconfigure.Config{Feedback: cfg.InitialFeedback})
	if err != nil {
		return nil, err
	}

	n := newNode(sel, &gpsPose, &encoPose, reconf, time.Duration(cfg.FeedbackPublishInterval)*time.Millisecond, cfg.EventQueueSize)
	if cfg.TopicCandidates != "" {
		n.candidates = bus.NewTopic[feedback.Candidates](client, cfg.TopicCandidates, false)
	}
	n.state = bus.NewTopic[reconfigure.State](client, cfg.TopicFeedbackSelectState, true)

	if err := bus.Subscribe(client, cfg.TopicGPSPose, func(p pose.PointStamped) {
		n.NotifyGPS(p)
	}); err != nil {
		return nil, fmt.Errorf("gps feed: %w", err)
	}
	if err := bus.Subscribe(client, cfg.TopicEncoderPose, func(p pose.PointStamped) {
		n.NotifyEncoder(p)
	}); err != nil {
		return nil, fmt.Errorf("encoder feed: %w", err)
	}
	// Compass samples are only cached; headings refresh on the next GPS fix.
	if err := bus.Subscribe(client, cfg.TopicCompass, compass.Set); err != nil {
		return nil, fmt.Errorf("compass feed: %w", err)
	}
	if err := client.SubscribeRaw(cfg.TopicFeedbackSelect, func(payload []byte) {
		n.RequestSelect(payload)
	}); err != nil {
		return nil, fmt.Errorf("select requests: %w", err)
	}

	return n, nil
}
