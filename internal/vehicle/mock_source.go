// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vehicle

import (
	"math"
	"time"

	"github.com/relabs-tech/state_feedback/internal/heading"
	"github.com/relabs-tech/state_feedback/internal/pose"
)

const (
	mockRadius   = 20.0 // meters
	mockRate     = 0.2  // rad/s, counter-clockwise
	mockDriftX   = 0.02 // encoder drift, m/s
	mockDriftY   = -0.01
	mockAltitude = 2.0
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock vehicle driving a circle around the origin.
// The encoder slowly drifts away from the GPS track.
func NewMockSource() Source {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (Sample, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	a := mockRate * elapsed

	gps := pose.Point{
		X: mockRadius * math.Cos(a),
		Y: mockRadius * math.Sin(a),
		Z: mockAltitude + 0.1*math.Sin(elapsed),
	}
	// tangent of a counter-clockwise circle
	track := heading.Degrees(a) + 90

	return Sample{
		GPS: gps,
		Encoder: pose.Point{
			X: gps.X + mockDriftX*elapsed,
			Y: gps.Y + mockDriftY*elapsed,
		},
		Compass: pose.Heading{Data: heading.PolarToCompass(track)},
	}, nil
}
