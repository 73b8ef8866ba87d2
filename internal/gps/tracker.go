// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/state_feedback/internal/pose"
)

// Update is what one NMEA sentence contributed. Nil fields were not touched.
type Update struct {
	Position *pose.PointStamped // from GGA with a valid fix
	Heading  *pose.Heading      // from HDT, true heading in degrees
	Fix      *Fix               // combined fix, refreshed by GGA and RMC
}

// Tracker turns a stream of NMEA sentences into local ENU positions and
// compass headings.
type Tracker struct {
	frame *Frame
	fix   Fix
	seq   uint32
	now   func() time.Time
}

// NewTracker returns a Tracker expressing positions in frame. A nil frame is
// anchored at the first valid GGA fix.
func NewTracker(frame *Frame) *Tracker {
	return &Tracker{frame: frame, now: time.Now}
}

// Frame returns the frame in use, or nil if none has been anchored yet.
func (t *Tracker) Frame() *Frame {
	return t.frame
}

// Handle parses one NMEA line. Lines that are not sentences are ignored;
// sentences that fail to parse return an error.
func (t *Tracker) Handle(line string) (Update, error) {
	line = strings.TrimSpace(line)

	// NMEA sentences usually start with '$'
	if !strings.HasPrefix(line, "$") {
		return Update{}, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Update{}, fmt.Errorf("nmea parse: %w", err)
	}

	switch sentence.DataType() {
	case nmea.TypeGGA:
		return t.handleGGA(sentence.(nmea.GGA)), nil
	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)

		t.fix.Time = m.Time.String()
		t.fix.Date = m.Date.String()
		t.fix.Latitude = m.Latitude
		t.fix.Longitude = m.Longitude
		t.fix.SpeedKnots = m.Speed
		t.fix.CourseDeg = m.Course
		t.fix.Validity = string(m.Validity)

		fix := t.fix
		return Update{Fix: &fix}, nil
	case nmea.TypeHDT:
		m := sentence.(nmea.HDT)
		return Update{Heading: &pose.Heading{Data: m.Heading}}, nil
	default:
		// GSA, GSV, VTG, ... carry nothing used here
		return Update{}, nil
	}
}

func (t *Tracker) handleGGA(m nmea.GGA) Update {
	t.fix.Time = m.Time.String()
	t.fix.Satellites = m.NumSatellites
	t.fix.Quality = m.FixQuality
	fix := t.fix

	if m.FixQuality == nmea.Invalid {
		return Update{Fix: &fix}
	}

	t.fix.Latitude = m.Latitude
	t.fix.Longitude = m.Longitude
	t.fix.Altitude = m.Altitude
	fix = t.fix

	if t.frame == nil {
		t.frame = NewFrame(m.Latitude, m.Longitude, m.Altitude)
	}

	t.seq++
	return Update{
		Position: &pose.PointStamped{
			Header: pose.Header{Seq: t.seq, Stamp: t.now(), FrameID: FrameID},
			Point:  t.frame.ToENU(m.Latitude, m.Longitude, m.Altitude),
		},
		Fix: &fix,
	}
}
