// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"

	geo "github.com/kellydunn/golang-geo"

	"github.com/relabs-tech/state_feedback/internal/heading"
	"github.com/relabs-tech/state_feedback/internal/pose"
)

// FrameID labels positions expressed in a Frame.
const FrameID = "local_ENU"

// Frame is a local East-North-Up tangent plane anchored at an origin fix.
// Distances come from the great-circle distance and initial bearing to the
// origin, which is accurate to well under a meter over a few kilometers.
type Frame struct {
	origin *geo.Point
	alt    float64
}

// NewFrame anchors a frame at lat, lon (decimal degrees) and alt (meters).
func NewFrame(lat, lon, alt float64) *Frame {
	return &Frame{origin: geo.NewPoint(lat, lon), alt: alt}
}

// Origin returns the anchor of the frame.
func (f *Frame) Origin() (lat, lon, alt float64) {
	return f.origin.Lat(), f.origin.Lng(), f.alt
}

// ToENU returns the position of lat, lon, alt relative to the origin, in
// meters.
func (f *Frame) ToENU(lat, lon, alt float64) pose.Point {
	p := geo.NewPoint(lat, lon)
	up := alt - f.alt

	d := f.origin.GreatCircleDistance(p) * 1000 // km -> m
	if d == 0 {
		return pose.Point{Z: up}
	}
	// bearing is clockwise from north
	b := heading.Radians(f.origin.BearingTo(p))
	return pose.Point{
		X: d * math.Sin(b),
		Y: d * math.Cos(b),
		Z: up,
	}
}
