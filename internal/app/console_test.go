// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/state_feedback/internal/bus"
	"github.com/relabs-tech/state_feedback/internal/bus/bustest"
	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
	"github.com/relabs-tech/state_feedback/internal/vehicle"
)

func TestFormatState(t *testing.T) {
	line := formatState("SEL", pose.VehicleState{
		Pose: pose.PointStamped{
			Header: pose.Header{Seq: 12, FrameID: "local_ENU/Pure-GPS"},
			Point:  pose.Point{X: 3, Y: -4.5, Z: 1},
		},
		Heading: 53.13,
	})
	assert.True(t, strings.HasPrefix(line, "[SEL  ] local_ENU/Pure-GPS"), line)
	assert.Contains(t, line, "seq=12")
	assert.Contains(t, line, "Y=    -4.50")
	assert.Contains(t, line, "HDG=  53.13")
}

func TestConsoleSubscriptions(t *testing.T) {
	cfg := config.Default()
	b := bustest.NewBroker()
	var out bytes.Buffer
	require.NoError(t, subscribeConsole(bus.New(b), cfg, &out, true))

	b.DeliverJSON(cfg.TopicFeedbackSelectState, reconfigure.State{Config: reconfigure.Config{Feedback: 2}, Version: 5})
	b.DeliverJSON(cfg.TopicFeedbackSelected, pose.VehicleState{Heading: 10})
	var c feedback.Candidates
	b.DeliverJSON(cfg.TopicCandidates, c)

	s := out.String()
	assert.Contains(t, s, "[MODE] Pure GPS (version 5)")
	assert.Contains(t, s, "[SEL  ]")
	assert.Contains(t, s, "[CAND2]")
}

func TestMockSim(t *testing.T) {
	var out bytes.Buffer
	sim := newMockSim(&out, int(feedback.PureGPS))

	require.NoError(t, sim.step(vehicle.Sample{GPS: pose.Point{X: 0, Y: 0}}))
	require.NoError(t, sim.step(vehicle.Sample{GPS: pose.Point{X: 0, Y: 2}, Encoder: pose.Point{X: 1}}))

	assert.Equal(t, feedback.PureGPS, sim.sel.Current())
	assert.InDelta(t, 90.0, sim.sel.Pose().Heading, 1e-9)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[7], "[SEL  ] local_ENU/Pure-GPS")
}

func TestPublishSample(t *testing.T) {
	cfg := config.Default()
	b := bustest.NewBroker()
	stamp := time.Unix(100, 0).UTC()

	s := vehicle.Sample{
		GPS:     pose.Point{X: 1, Y: 2, Z: 3},
		Encoder: pose.Point{X: 1.1, Y: 2.2},
		Compass: pose.Heading{Data: 45},
	}
	require.NoError(t, publishSample(bus.New(b), cfg, 9, stamp, s))

	var g, e pose.PointStamped
	require.True(t, b.Last(cfg.TopicGPSPose, &g))
	require.True(t, b.Last(cfg.TopicEncoderPose, &e))
	assert.Equal(t, s.GPS, g.Point)
	assert.Equal(t, uint32(9), g.Header.Seq)
	assert.True(t, stamp.Equal(g.Header.Stamp))
	assert.Equal(t, s.Encoder, e.Point)
	assert.Equal(t, encoderFrameID, e.Header.FrameID)

	var h pose.Heading
	require.True(t, b.Last(cfg.TopicCompass, &h))
	assert.Equal(t, 45.0, h.Data)
}

func TestRunMockProducerStops(t *testing.T) {
	cfg := config.Default()
	cfg.MockPublishInterval = 1
	b := bustest.NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runMockProducer(ctx, bus.New(b), cfg, vehicle.NewMockSource()) }()

	require.Eventually(t, func() bool {
		return len(b.Published(cfg.TopicEncoderPose)) >= 3
	}, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
