// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDFeedback string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDProducer string

	// Topics
	TopicGPSPose             string
	TopicEncoderPose         string
	TopicCompass             string
	TopicFeedbackSelected    string
	TopicCandidates          string
	TopicFeedbackSelect      string // reconfiguration requests
	TopicFeedbackSelectState string // accepted selection + version, retained
	TopicGPSFix              string

	// Feedback selection
	InitialFeedback         int // 0=GPS+Compass, 1=Encoder+Compass, 2=Pure GPS
	FeedbackPublishInterval int // milliseconds
	EventQueueSize          int

	// GPS
	GPSSerialPort string
	GPSBaudRate   int
	// Local ENU origin. When GPSOriginSet is false the first valid fix is used.
	GPSOriginSet bool
	GPSOriginLat float64 // decimal degrees
	GPSOriginLon float64 // decimal degrees
	GPSOriginAlt float64 // meters

	// Mock producer
	MockPublishInterval int // milliseconds

	// Web Server
	WebServerPort int
	WebStaticDir  string
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDFeedback: "state-feedback-selector",
		MQTTClientIDGPS:      "state-feedback-gps-producer",
		MQTTClientIDConsole:  "state-feedback-console",
		MQTTClientIDWeb:      "state-feedback-web",
		MQTTClientIDProducer: "state-feedback-producer-mock",

		TopicGPSPose:             "state_feedback/position_from_gps",
		TopicEncoderPose:         "state_feedback/position_from_encoder",
		TopicCompass:             "mavros/global_position/compass_hdg",
		TopicFeedbackSelected:    "state_feedback/selected_feedback",
		TopicCandidates:          "state_feedback/candidates",
		TopicFeedbackSelect:      "state_feedback/feedback_select/set",
		TopicFeedbackSelectState: "state_feedback/feedback_select",
		TopicGPSFix:              "state_feedback/gps_fix",

		InitialFeedback:         0,
		FeedbackPublishInterval: 100,
		EventQueueSize:          10,

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		MockPublishInterval: 200,

		WebServerPort: 8080,
		WebStaticDir:  "web",
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys absent from the file keep their Default values.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_FEEDBACK":
		c.MQTTClientIDFeedback = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value

	// Topics
	case "TOPIC_GPS_POSE":
		c.TopicGPSPose = value
	case "TOPIC_ENCODER_POSE":
		c.TopicEncoderPose = value
	case "TOPIC_COMPASS":
		c.TopicCompass = value
	case "TOPIC_FEEDBACK_SELECTED":
		c.TopicFeedbackSelected = value
	case "TOPIC_CANDIDATES":
		c.TopicCandidates = value
	case "TOPIC_FEEDBACK_SELECT":
		c.TopicFeedbackSelect = value
	case "TOPIC_FEEDBACK_SELECT_STATE":
		c.TopicFeedbackSelectState = value
	case "TOPIC_GPS_FIX":
		c.TopicGPSFix = value

	// Feedback selection
	case "INITIAL_FEEDBACK":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid INITIAL_FEEDBACK %q: %w", value, err)
		}
		c.InitialFeedback = val
	case "FEEDBACK_PUBLISH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FEEDBACK_PUBLISH_INTERVAL %q: %w", value, err)
		}
		c.FeedbackPublishInterval = interval
	case "EVENT_QUEUE_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid EVENT_QUEUE_SIZE %q: %w", value, err)
		}
		c.EventQueueSize = size

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate
	case "GPS_ORIGIN":
		// lat,lon[,alt]
		fields := strings.Split(value, ",")
		if len(fields) < 2 || len(fields) > 3 {
			return fmt.Errorf("GPS_ORIGIN must be lat,lon[,alt], got %q", value)
		}
		var coords [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return fmt.Errorf("invalid GPS_ORIGIN %q: %w", value, err)
			}
			coords[i] = v
		}
		if coords[0] < -90 || coords[0] > 90 || coords[1] < -180 || coords[1] > 180 {
			return fmt.Errorf("GPS_ORIGIN out of range: %q", value)
		}
		c.GPSOriginLat, c.GPSOriginLon, c.GPSOriginAlt = coords[0], coords[1], coords[2]
		c.GPSOriginSet = true

	// Mock producer
	case "MOCK_PUBLISH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOCK_PUBLISH_INTERVAL %q: %w", value, err)
		}
		c.MockPublishInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	topics := map[string]string{
		"TOPIC_GPS_POSE":              c.TopicGPSPose,
		"TOPIC_ENCODER_POSE":          c.TopicEncoderPose,
		"TOPIC_COMPASS":               c.TopicCompass,
		"TOPIC_FEEDBACK_SELECTED":     c.TopicFeedbackSelected,
		"TOPIC_FEEDBACK_SELECT":       c.TopicFeedbackSelect,
		"TOPIC_FEEDBACK_SELECT_STATE": c.TopicFeedbackSelectState,
	}
	for key, topic := range topics {
		if topic == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	if c.InitialFeedback < reconfigure.FeedbackMin || c.InitialFeedback > reconfigure.FeedbackMax {
		return fmt.Errorf("INITIAL_FEEDBACK must be %d-%d (0=GPS+Compass, 1=Encoder+Compass, 2=Pure GPS), got %d",
			reconfigure.FeedbackMin, reconfigure.FeedbackMax, c.InitialFeedback)
	}
	if c.FeedbackPublishInterval <= 0 {
		return fmt.Errorf("FEEDBACK_PUBLISH_INTERVAL must be positive, got %d", c.FeedbackPublishInterval)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", c.EventQueueSize)
	}
	if c.MockPublishInterval <= 0 {
		return fmt.Errorf("MOCK_PUBLISH_INTERVAL must be positive, got %d", c.MockPublishInterval)
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	return nil
}
