// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading converts between compass bearings and planar (ENU) angles.
//
// A compass bearing is measured clockwise from north, in degrees. A polar
// angle is measured counter-clockwise from east, in degrees. The two are
// related by
//
//	polar   = wrap180(90 - bearing)
//	bearing = wrap360(90 - polar)
//
// so PolarToCompass(CompassToPolar(b)) == wrap360(b).
package heading

import "math"

// CompassToPolar maps a compass bearing to a polar angle in (-180, 180].
func CompassToPolar(bearing float64) float64 {
	return Wrap180(90 - bearing)
}

// PolarToCompass maps a polar angle to a compass bearing in [0, 360).
func PolarToCompass(polar float64) float64 {
	return Wrap360(90 - polar)
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Wrap360 folds an angle in degrees into [0, 360).
func Wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// Wrap180 folds an angle in degrees into (-180, 180].
func Wrap180(deg float64) float64 {
	deg = Wrap360(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// Track returns the direction of travel from (x0, y0) to (x1, y1) as a
// polar angle in degrees. A zero displacement yields exactly 0.
func Track(x0, y0, x1, y1 float64) float64 {
	dx := x1 - x0
	dy := y1 - y0
	if dx == 0 && dy == 0 {
		// math.Atan2 returns ±180 for (±0, -0)
		return 0
	}
	return Degrees(math.Atan2(dy, dx))
}
