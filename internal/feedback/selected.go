// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package feedback builds the candidate vehicle poses and publishes the one
// currently selected as state feedback.
//
// Three candidates are maintained:
//
//	GPSCompass      GPS position, compass heading
//	EncoderCompass  encoder x/y, GPS altitude, compass heading
//	PureGPS         GPS position, heading from successive GPS fixes
//
// Selected is not safe for concurrent use. It is meant to be owned by a
// single dispatch loop that serializes sensor events, reconfiguration and
// publish ticks.
package feedback

import (
	"log"

	"github.com/relabs-tech/state_feedback/internal/heading"
	"github.com/relabs-tech/state_feedback/internal/latest"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

// Publisher sends one pose downstream. Delivery is best effort.
type Publisher interface {
	Publish(pose.VehicleState) error
}

// Sources are the latest-value feeds the candidates are built from.
// A feed that never produced a sample reads as its zero value.
type Sources struct {
	GPS     latest.Reader[pose.PointStamped]
	Encoder latest.Reader[pose.PointStamped]
	Compass latest.Reader[pose.Heading]
}

// Candidates holds one pose per Feedback.
type Candidates [NumFeedbacks]pose.VehicleState

// Selected computes the candidates and publishes the selected one.
type Selected struct {
	src   Sources
	pub   Publisher
	poses Candidates

	feedback Feedback

	logf func(format string, args ...any)
}

// New returns a Selected publishing GPSCompass until reconfigured.
// Each candidate starts at the origin with zero heading and its frame label.
func New(src Sources, pub Publisher) *Selected {
	s := &Selected{
		src:      src,
		pub:      pub,
		feedback: GPSCompass,
		logf:     log.Printf,
	}
	for i := range s.poses {
		s.poses[i].Pose.Header.FrameID = Feedback(i).FrameID()
	}
	return s
}

// Reconfigure switches the published candidate. It is registered as the
// reconfigure.Server callback, which has already range-checked cfg.
func (s *Selected) Reconfigure(cfg reconfigure.Config, level uint32) {
	s.feedback = Feedback(cfg.Feedback)
	s.logf("feedback: updated selection -> '%s'", s.feedback)
}

// UpdateFromGPS refreshes the candidates that depend on the GPS and compass
// feeds: all of GPSCompass and PureGPS, plus the altitude and heading of
// EncoderCompass.
func (s *Selected) UpdateFromGPS() {
	fix := s.src.GPS.Get()
	theta := heading.CompassToPolar(s.src.Compass.Get().Data)

	gc := &s.poses[GPSCompass]
	gc.Pose.Point = fix.Point
	gc.Pose.Header = fix.Header
	gc.Pose.Header.FrameID = GPSCompass.FrameID()
	gc.Heading = theta

	ec := &s.poses[EncoderCompass]
	ec.Pose.Point.Z = fix.Point.Z
	ec.Heading = theta

	// The track must be taken against the previous fix before it is
	// overwritten. On the very first fix the previous position is the
	// origin, so the heading is the bearing of the fix from the origin.
	pg := &s.poses[PureGPS]
	prev := pg.Pose.Point
	pg.Heading = heading.Track(prev.X, prev.Y, fix.Point.X, fix.Point.Y)
	pg.Pose.Point = fix.Point
	pg.Pose.Header = fix.Header
	pg.Pose.Header.FrameID = PureGPS.FrameID()
}

// UpdateFromEncoder refreshes the planar position of EncoderCompass. Its
// altitude and heading are left to UpdateFromGPS, so they stay zero until a
// GPS fix has been processed.
func (s *Selected) UpdateFromEncoder() {
	enc := s.src.Encoder.Get()

	ec := &s.poses[EncoderCompass]
	ec.Pose.Header = enc.Header
	ec.Pose.Header.FrameID = EncoderCompass.FrameID()
	ec.Pose.Point.X = enc.Point.X
	ec.Pose.Point.Y = enc.Point.Y
}

// Publish sends the selected candidate once.
func (s *Selected) Publish() error {
	return s.pub.Publish(s.poses[s.feedback])
}

// Current returns the selected feedback.
func (s *Selected) Current() Feedback {
	return s.feedback
}

// Pose returns the selected candidate.
func (s *Selected) Pose() pose.VehicleState {
	return s.poses[s.feedback]
}

// Candidates returns a copy of all candidates.
func (s *Selected) Candidates() Candidates {
	return s.poses
}
