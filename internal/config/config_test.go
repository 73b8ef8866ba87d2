// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

func TestDefaultTopics(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, "state_feedback/position_from_gps", cfg.TopicGPSPose)
	assert.Equal(t, "state_feedback/position_from_encoder", cfg.TopicEncoderPose)
	assert.Equal(t, "state_feedback/selected_feedback", cfg.TopicFeedbackSelected)
	assert.Equal(t, "mavros/global_position/compass_hdg", cfg.TopicCompass)
	assert.Equal(t, 0, cfg.InitialFeedback)
	assert.False(t, cfg.GPSOriginSet)
}

func TestParseOverridesDefaults(t *testing.T) {
	in := `
# broker
MQTT_BROKER = tcp://pi.local:1883

TOPIC_GPS_POSE=rover/gps
TOPIC_FEEDBACK_SELECTED=rover/feedback
INITIAL_FEEDBACK=2
FEEDBACK_PUBLISH_INTERVAL=50
GPS_ORIGIN=48.1173, 11.5167, 545.4
WEB_SERVER_PORT=9090
`
	cfg, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "tcp://pi.local:1883", cfg.MQTTBroker)
	assert.Equal(t, "rover/gps", cfg.TopicGPSPose)
	assert.Equal(t, "rover/feedback", cfg.TopicFeedbackSelected)
	assert.Equal(t, "state_feedback/position_from_encoder", cfg.TopicEncoderPose)
	assert.Equal(t, 2, cfg.InitialFeedback)
	assert.Equal(t, 50, cfg.FeedbackPublishInterval)
	assert.True(t, cfg.GPSOriginSet)
	assert.Equal(t, 48.1173, cfg.GPSOriginLat)
	assert.Equal(t, 11.5167, cfg.GPSOriginLon)
	assert.Equal(t, 545.4, cfg.GPSOriginAlt)
	assert.Equal(t, 9090, cfg.WebServerPort)
}

func TestParseOriginWithoutAltitude(t *testing.T) {
	cfg, err := Parse(strings.NewReader("GPS_ORIGIN=-33.5,151.25\n"))
	require.NoError(t, err)
	assert.True(t, cfg.GPSOriginSet)
	assert.Equal(t, 0.0, cfg.GPSOriginAlt)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no equals":        "MQTT_BROKER",
		"unknown key":      "FOO=bar",
		"bad int":          "INITIAL_FEEDBACK=two",
		"feedback range":   "INITIAL_FEEDBACK=3",
		"negative":         "INITIAL_FEEDBACK=-1",
		"zero interval":    "FEEDBACK_PUBLISH_INTERVAL=0",
		"empty broker":     "MQTT_BROKER=",
		"empty topic":      "TOPIC_COMPASS=",
		"origin fields":    "GPS_ORIGIN=1",
		"origin not float": "GPS_ORIGIN=a,b",
		"origin range":     "GPS_ORIGIN=91,0",
		"port range":       "WEB_SERVER_PORT=70000",
	}
	for name, in := range cases {
		_, err := Parse(strings.NewReader(in))
		assert.Error(t, err, name)
	}
}

func TestParseReportsLineNumber(t *testing.T) {
	_, err := Parse(strings.NewReader("# comment\n\nBOGUS=1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config line 3")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state_feedback_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("INITIAL_FEEDBACK=1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.InitialFeedback)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestParseInitialFeedbackBounds(t *testing.T) {
	for v := reconfigure.FeedbackMin; v <= reconfigure.FeedbackMax; v++ {
		cfg, err := Parse(strings.NewReader(fmt.Sprintf("INITIAL_FEEDBACK=%d\n", v)))
		require.NoError(t, err, v)
		assert.Equal(t, v, cfg.InitialFeedback)
	}
	_, err := Parse(strings.NewReader(fmt.Sprintf("INITIAL_FEEDBACK=%d\n", reconfigure.FeedbackMax+1)))
	assert.ErrorContains(t, err, "INITIAL_FEEDBACK")
}
