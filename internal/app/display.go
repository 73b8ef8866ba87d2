// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

// Status cards use the 128x64 layout of the rover's OLED panels.
const (
	cardWidth   = 128
	cardHeight  = 64
	cardLineGap = 13
)

// statusLines summarizes the selected feedback in at most four lines of 18
// characters.
func statusLines(sel pose.VehicleState, haveSel bool, st reconfigure.State, haveState bool) []string {
	if !haveSel {
		return []string{"State feedback", "Waiting..."}
	}

	mode := frameMode(sel.Pose.Header.FrameID)
	if haveState {
		mode = feedback.Feedback(st.Feedback).String()
	}
	return []string{
		mode,
		fmt.Sprintf("X:%9.2f", sel.Pose.Point.X),
		fmt.Sprintf("Y:%9.2f", sel.Pose.Point.Y),
		fmt.Sprintf("H:%7.1f v%d", sel.Heading, st.Version),
	}
}

func frameMode(frameID string) string {
	for i := range feedback.NumFeedbacks {
		if f := feedback.Feedback(i); f.FrameID() == frameID {
			return f.String()
		}
	}
	return frameID
}

// renderStatusCard draws lines in white on black, one per 13px row.
func renderStatusCard(lines []string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cardWidth, cardHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.White},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		if (i+1)*cardLineGap > cardHeight {
			break
		}
		drawer.Dot = fixed.P(0, (i+1)*cardLineGap)
		drawer.DrawString(line)
	}
	return img
}
