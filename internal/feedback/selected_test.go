// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/state_feedback/internal/latest"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

const eps = 1e-9

type recorder struct {
	sent []pose.VehicleState
	err  error
}

func (r *recorder) Publish(p pose.VehicleState) error {
	r.sent = append(r.sent, p)
	return r.err
}

type fixture struct {
	gps, enc latest.Value[pose.PointStamped]
	compass  latest.Value[pose.Heading]
	pub      recorder
	sel      *Selected
	logs     []string
}

func newFixture() *fixture {
	f := &fixture{}
	f.sel = New(Sources{GPS: &f.gps, Encoder: &f.enc, Compass: &f.compass}, &f.pub)
	f.sel.logf = func(format string, args ...any) {
		f.logs = append(f.logs, fmt.Sprintf(format, args...))
	}
	return f
}

func (f *fixture) gpsFix(seq uint32, x, y, z float64) {
	f.gps.Set(pose.PointStamped{
		Header: pose.Header{Seq: seq, Stamp: time.Unix(int64(seq), 0), FrameID: "local_ENU"},
		Point:  pose.Point{X: x, Y: y, Z: z},
	})
	f.sel.UpdateFromGPS()
}

func (f *fixture) encoder(seq uint32, x, y, z float64) {
	f.enc.Set(pose.PointStamped{
		Header: pose.Header{Seq: seq, Stamp: time.Unix(int64(seq), 0), FrameID: "odom"},
		Point:  pose.Point{X: x, Y: y, Z: z},
	})
	f.sel.UpdateFromEncoder()
}

func (f *fixture) selectFeedback(fb Feedback) {
	f.sel.Reconfigure(reconfigure.Config{Feedback: int(fb)}, 0)
}

func TestDefaultStatePublishesGPSCompassAtOrigin(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.sel.Publish())

	require.Len(t, f.pub.sent, 1)
	got := f.pub.sent[0]
	assert.Equal(t, pose.Point{}, got.Pose.Point)
	assert.Zero(t, got.Heading)
	assert.Equal(t, "local_ENU/GPS+Compass", got.Pose.Header.FrameID)
	assert.Equal(t, GPSCompass, f.sel.Current())
}

func TestUpdateFromGPSWithoutAnyData(t *testing.T) {
	f := newFixture()
	f.sel.UpdateFromGPS()
	f.sel.UpdateFromEncoder()

	for i, c := range f.sel.Candidates() {
		assert.Equal(t, pose.Point{}, c.Pose.Point, "candidate %d", i)
		assert.Equal(t, Feedback(i).FrameID(), c.Pose.Header.FrameID)
	}
	// zero bearing is north, i.e. 90 degrees in ENU
	assert.InDelta(t, 90.0, f.sel.Candidates()[GPSCompass].Heading, eps)
	assert.Zero(t, f.sel.Candidates()[PureGPS].Heading)
}

func TestConcreteScenario(t *testing.T) {
	f := newFixture()
	f.compass.Set(pose.Heading{Data: 0}) // north -> 90 deg polar

	f.gpsFix(1, 0, 0, 0)
	c := f.sel.Candidates()
	assert.InDelta(t, 90.0, c[GPSCompass].Heading, eps)
	assert.Equal(t, 0.0, c[PureGPS].Heading)

	f.gpsFix(2, 3, 4, 0)
	c = f.sel.Candidates()
	assert.InDelta(t, 53.13010235415598, c[PureGPS].Heading, eps)
	assert.InDelta(t, 90.0, c[GPSCompass].Heading, eps)
	assert.Equal(t, pose.Point{X: 3, Y: 4}, c[GPSCompass].Pose.Point)
	assert.Equal(t, pose.Point{X: 3, Y: 4}, c[PureGPS].Pose.Point)
	assert.Equal(t, uint32(2), c[GPSCompass].Pose.Header.Seq)
	assert.Equal(t, "local_ENU/GPS+Compass", c[GPSCompass].Pose.Header.FrameID)
	assert.Equal(t, "local_ENU/Pure-GPS", c[PureGPS].Pose.Header.FrameID)
}

func TestPureGPSHeadingUsesPreviousFix(t *testing.T) {
	fixes := []pose.Point{{X: 1, Y: 1}, {X: 4, Y: -2}, {X: -3, Y: 5}, {X: -3, Y: 9}, {X: 10, Y: 9}}

	f := newFixture()
	f.gpsFix(0, fixes[0].X, fixes[0].Y, 0)
	for i := 1; i < len(fixes); i++ {
		p1, p2 := fixes[i-1], fixes[i]
		f.gpsFix(uint32(i), p2.X, p2.Y, 0)

		want := atan2Deg(p2.Y-p1.Y, p2.X-p1.X)
		assert.InDelta(t, want, f.sel.Candidates()[PureGPS].Heading, eps, "fix %d", i)
	}
}

func TestPureGPSFirstFixIsBearingFromOrigin(t *testing.T) {
	f := newFixture()
	f.gpsFix(1, 0, 5, 0)
	assert.InDelta(t, 90.0, f.sel.Candidates()[PureGPS].Heading, eps)
}

func TestPureGPSRepeatedFixIsZero(t *testing.T) {
	f := newFixture()
	f.gpsFix(1, 2, 2, 0)
	f.gpsFix(2, 2, 2, 0)
	assert.Equal(t, 0.0, f.sel.Candidates()[PureGPS].Heading)
}

func TestGPSUpdateTracksAltitudeAndHeadingOfEncoderCandidate(t *testing.T) {
	f := newFixture()
	f.encoder(1, 7, 8, 99)
	f.compass.Set(pose.Heading{Data: 90}) // east -> 0 deg polar
	f.gpsFix(1, 1, 2, 12.5)

	ec := f.sel.Candidates()[EncoderCompass]
	assert.Equal(t, pose.Point{X: 7, Y: 8, Z: 12.5}, ec.Pose.Point)
	assert.InDelta(t, 0.0, ec.Heading, eps)
	assert.Equal(t, "local_ENU/Encoder+Compass", ec.Pose.Header.FrameID)
	assert.Equal(t, "odom", f.enc.Get().Header.FrameID)
}

func TestEncoderUpdateIsolation(t *testing.T) {
	f := newFixture()
	f.compass.Set(pose.Heading{Data: 30})
	f.gpsFix(1, 1, 1, 3)
	f.gpsFix(2, 2, 5, 4)
	before := f.sel.Candidates()

	f.encoder(7, -4, 6, 1000)
	after := f.sel.Candidates()

	assert.Equal(t, before[GPSCompass], after[GPSCompass])
	assert.Equal(t, before[PureGPS], after[PureGPS])
	assert.Equal(t, before[EncoderCompass].Pose.Point.Z, after[EncoderCompass].Pose.Point.Z)
	assert.Equal(t, before[EncoderCompass].Heading, after[EncoderCompass].Heading)

	assert.Equal(t, -4.0, after[EncoderCompass].Pose.Point.X)
	assert.Equal(t, 6.0, after[EncoderCompass].Pose.Point.Y)
	assert.Equal(t, uint32(7), after[EncoderCompass].Pose.Header.Seq)
}

func TestEncoderBeforeGPSLeavesHeadingZero(t *testing.T) {
	f := newFixture()
	f.compass.Set(pose.Heading{Data: 45})
	f.encoder(1, 3, 3, 0)

	ec := f.sel.Candidates()[EncoderCompass]
	assert.Zero(t, ec.Heading)
	assert.Zero(t, ec.Pose.Point.Z)
}

func TestSelectionIsImmediate(t *testing.T) {
	f := newFixture()
	f.compass.Set(pose.Heading{Data: 0})
	f.gpsFix(1, 0, 0, 0)
	f.gpsFix(2, 3, 4, 1)
	f.encoder(3, 10, 11, 0)

	f.selectFeedback(PureGPS)
	require.NoError(t, f.sel.Publish())
	assert.Equal(t, f.sel.Candidates()[PureGPS], f.pub.sent[0])

	f.selectFeedback(EncoderCompass)
	require.NoError(t, f.sel.Publish())
	assert.Equal(t, f.sel.Candidates()[EncoderCompass], f.pub.sent[1])
	assert.Equal(t, pose.Point{X: 10, Y: 11, Z: 1}, f.pub.sent[1].Pose.Point)
}

func TestSelectionWithoutPriorUpdates(t *testing.T) {
	f := newFixture()
	f.selectFeedback(PureGPS)
	require.NoError(t, f.sel.Publish())
	assert.Equal(t, "local_ENU/Pure-GPS", f.pub.sent[0].Pose.Header.FrameID)
	assert.Equal(t, f.sel.Pose(), f.pub.sent[0])
}

func TestReconfigureLogsMode(t *testing.T) {
	f := newFixture()
	f.selectFeedback(EncoderCompass)
	f.selectFeedback(PureGPS)
	f.selectFeedback(GPSCompass)

	require.Len(t, f.logs, 3)
	assert.Contains(t, f.logs[0], "'Encoder+Compass'")
	assert.Contains(t, f.logs[1], "'Pure GPS'")
	assert.Contains(t, f.logs[2], "'GPS+Compass'")
}

func TestReconfigureThroughServer(t *testing.T) {
	f := newFixture()
	srv, err := reconfigure.NewServer(reconfigure.Config{Feedback: int(PureGPS)})
	require.NoError(t, err)

	srv.SetCallback(f.sel.Reconfigure)
	assert.Equal(t, PureGPS, f.sel.Current())

	_, err = srv.Apply(reconfigure.Config{Feedback: 3})
	require.Error(t, err)
	assert.Equal(t, PureGPS, f.sel.Current())

	_, err = srv.Apply(reconfigure.Config{Feedback: 1})
	require.NoError(t, err)
	assert.Equal(t, EncoderCompass, f.sel.Current())
}

func TestPublishErrorIsReturned(t *testing.T) {
	f := newFixture()
	f.pub.err = errors.New("broker gone")
	assert.EqualError(t, f.sel.Publish(), "broker gone")
}

func atan2Deg(y, x float64) float64 {
	return math.Atan2(y, x) * 180 / math.Pi
}
