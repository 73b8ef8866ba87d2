// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pose holds the stamped position and heading messages exchanged
// between the feedback sources and the selector.
package pose

import "time"

// Header carries sequencing, timing and the frame a position is expressed in.
type Header struct {
	Seq     uint32    `json:"seq"`
	Stamp   time.Time `json:"stamp"`
	FrameID string    `json:"frame_id"` // e.g. "local_ENU/GPS+Compass"
}

// Point is a position in meters in a local ENU frame.
type Point struct {
	X float64 `json:"x"` // east
	Y float64 `json:"y"` // north
	Z float64 `json:"z"` // up
}

// PointStamped is a position sample as published by the GPS and encoder
// producers.
type PointStamped struct {
	Header Header `json:"header"`
	Point  Point  `json:"point"`
}

// Heading is a compass bearing sample in degrees, clockwise from north.
type Heading struct {
	Data float64 `json:"data"`
}

// VehicleState is the pose handed to the state-estimation pipeline.
// Heading is planar, in degrees, counter-clockwise from east.
type VehicleState struct {
	Pose    PointStamped `json:"pose"`
	Heading float64      `json:"heading"`
}
