// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package vehicle produces raw sensor samples for the feedback selector
// when no real rover is attached.
package vehicle

import "github.com/relabs-tech/state_feedback/internal/pose"

// Sample is one reading of every feed the selector consumes.
type Sample struct {
	GPS     pose.Point   // local ENU, meters
	Encoder pose.Point   // dead-reckoned, meters; z is not measured
	Compass pose.Heading // bearing, degrees clockwise from north
}

// Source is anything that can provide samples over time.
type Source interface {
	Next() (Sample, error)
}
