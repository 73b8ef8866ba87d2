// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Feedback names one of the candidate pose estimates.
type Feedback int

const (
	GPSCompass Feedback = iota
	EncoderCompass
	PureGPS
)

// NumFeedbacks is the number of candidate pose estimates.
const NumFeedbacks = 3

// ErrUnknownFeedback is returned by Parse for unrecognized names.
var ErrUnknownFeedback = errors.New("unknown feedback")

var (
	names    = [NumFeedbacks]string{"GPS+Compass", "Encoder+Compass", "Pure GPS"}
	keys     = [NumFeedbacks]string{"gps_compass", "encoder_compass", "pure_gps"}
	frameIDs = [NumFeedbacks]string{
		"local_ENU/GPS+Compass",
		"local_ENU/Encoder+Compass",
		"local_ENU/Pure-GPS",
	}
)

// Valid reports whether f is one of the defined feedbacks.
func (f Feedback) Valid() bool {
	return f >= GPSCompass && f <= PureGPS
}

func (f Feedback) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Feedback(%d)", int(f))
	}
	return names[f]
}

// Key is the snake_case identifier used in config files and requests.
func (f Feedback) Key() string {
	if !f.Valid() {
		return ""
	}
	return keys[f]
}

// FrameID is the frame label stamped on poses produced by f.
func (f Feedback) FrameID() string {
	if !f.Valid() {
		return ""
	}
	return frameIDs[f]
}

// Parse accepts an index ("0".."2"), a key ("pure_gps") or a display name
// ("Pure GPS"), case-insensitively.
func Parse(s string) (Feedback, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if f := Feedback(n); f.Valid() {
			return f, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrUnknownFeedback, n)
	}
	for i := range NumFeedbacks {
		if strings.EqualFold(s, keys[i]) || strings.EqualFold(s, names[i]) {
			return Feedback(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeedback, s)
}
