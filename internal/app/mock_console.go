// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/latest"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
	"github.com/relabs-tech/state_feedback/internal/vehicle"
)

// RunMockConsole runs the selector against the mock vehicle without a broker
// and prints every candidate on each tick.
func RunMockConsole(ctx context.Context, cfg *config.Config, w io.Writer) error {
	src := vehicle.NewMockSource()
	sim := newMockSim(w, cfg.InitialFeedback)

	ticker := time.NewTicker(time.Duration(cfg.MockPublishInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s, err := src.Next()
			if err != nil {
				return err
			}
			if err := sim.step(s); err != nil {
				return err
			}
		}
	}
}

type mockSim struct {
	w        io.Writer
	gps, enc latest.Value[pose.PointStamped]
	compass  latest.Value[pose.Heading]
	sel      *feedback.Selected
	seq      uint32
}

func newMockSim(w io.Writer, initial int) *mockSim {
	m := &mockSim{w: w}
	m.sel = feedback.New(feedback.Sources{GPS: &m.gps, Encoder: &m.enc, Compass: &m.compass}, m)
	m.sel.Reconfigure(reconfigure.Config{Feedback: initial}, reconfigure.LevelAll)
	return m
}

func (m *mockSim) step(s vehicle.Sample) error {
	m.seq++
	m.compass.Set(s.Compass)
	m.gps.Set(pose.PointStamped{Header: pose.Header{Seq: m.seq}, Point: s.GPS})
	m.enc.Set(pose.PointStamped{Header: pose.Header{Seq: m.seq}, Point: s.Encoder})
	m.sel.UpdateFromGPS()
	m.sel.UpdateFromEncoder()

	for i, c := range m.sel.Candidates() {
		fmt.Fprintln(m.w, formatState(fmt.Sprintf("CAND%d", i), c))
	}
	return m.sel.Publish()
}

// Publish prints the selected pose.
func (m *mockSim) Publish(p pose.VehicleState) error {
	_, err := fmt.Fprintln(m.w, formatState("SEL", p))
	return err
}
