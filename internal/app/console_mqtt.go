// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/relabs-tech/state_feedback/internal/bus"
	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/gps"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

// RunConsoleMQTT prints the selected feedback, the candidates and selection
// changes as they arrive, until ctx is done. Candidates are only printed
// when showCandidates is set.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, w io.Writer, showCandidates bool) error {
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := subscribeConsole(client, cfg, w, showCandidates); err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func subscribeConsole(client *bus.Client, cfg *config.Config, w io.Writer, showCandidates bool) error {
	if err := bus.Subscribe(client, cfg.TopicFeedbackSelected, func(p pose.VehicleState) {
		fmt.Fprintln(w, formatState("SEL", p))
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(client, cfg.TopicFeedbackSelectState, func(st reconfigure.State) {
		fmt.Fprintf(w, "[MODE] %s (version %d)\n", feedback.Feedback(st.Feedback), st.Version)
	}); err != nil {
		return err
	}

	if cfg.TopicGPSFix != "" {
		if err := bus.Subscribe(client, cfg.TopicGPSFix, func(f gps.Fix) {
			fmt.Fprintf(w,
				"[GPS ] time=%s date=%s lat=%.6f lon=%.6f alt=%.1f sats=%d validity=%s\n",
				f.Time, f.Date, f.Latitude, f.Longitude, f.Altitude, f.Satellites, f.Validity,
			)
		}); err != nil {
			return err
		}
	}

	if showCandidates && cfg.TopicCandidates != "" {
		if err := bus.Subscribe(client, cfg.TopicCandidates, func(c feedback.Candidates) {
			for i, p := range c {
				fmt.Fprintln(w, formatState(fmt.Sprintf("CAND%d", i), p))
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func formatState(label string, p pose.VehicleState) string {
	return fmt.Sprintf("[%-5s] %-26s seq=%-6d X=%9.2f  Y=%9.2f  Z=%7.2f  HDG=%7.2f",
		label, p.Pose.Header.FrameID, p.Pose.Header.Seq,
		p.Pose.Point.X, p.Pose.Point.Y, p.Pose.Point.Z, p.Heading)
}
