// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/state_feedback/internal/bus"
	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/gps"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/vehicle"
)

// encoderFrameID labels dead-reckoned encoder positions.
const encoderFrameID = "local_ENU/encoder"

// RunMockProducer publishes a simulated rover's GPS, encoder and compass
// feeds until ctx is done.
func RunMockProducer(ctx context.Context, cfg *config.Config) error {
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Close()

	return runMockProducer(ctx, client, cfg, vehicle.NewMockSource())
}

func runMockProducer(ctx context.Context, client *bus.Client, cfg *config.Config, src vehicle.Source) error {
	ticker := time.NewTicker(time.Duration(cfg.MockPublishInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("producer: connected to MQTT, starting publish loop")

	var seq uint32
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			s, err := src.Next()
			if err != nil {
				log.Printf("producer: error from mock source: %v", err)
				continue
			}
			seq++
			if err := publishSample(client, cfg, seq, t, s); err != nil {
				log.Printf("producer: %v", err)
				continue
			}
			log.Printf("%s published sample: gps=(%.2f, %.2f, %.2f) enc=(%.2f, %.2f) hdg=%.1f",
				t.Format(time.RFC3339), s.GPS.X, s.GPS.Y, s.GPS.Z, s.Encoder.X, s.Encoder.Y, s.Compass.Data)
		}
	}
}

// publishSample sends the compass first so the selector has it cached when
// the GPS fix arrives.
func publishSample(client *bus.Client, cfg *config.Config, seq uint32, stamp time.Time, s vehicle.Sample) error {
	if err := client.Publish(cfg.TopicCompass, false, s.Compass); err != nil {
		return err
	}
	if err := client.Publish(cfg.TopicGPSPose, false, pose.PointStamped{
		Header: pose.Header{Seq: seq, Stamp: stamp, FrameID: gps.FrameID},
		Point:  s.GPS,
	}); err != nil {
		return err
	}
	return client.Publish(cfg.TopicEncoderPose, false, pose.PointStamped{
		Header: pose.Header{Seq: seq, Stamp: stamp, FrameID: encoderFrameID},
		Point:  s.Encoder,
	})
}
