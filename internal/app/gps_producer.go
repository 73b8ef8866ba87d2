// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/state_feedback/internal/bus"
	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences and
// publishes local ENU positions, true headings and combined fixes to MQTT.
func RunGPSProducer(ctx context.Context, cfg *config.Config) error {
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Close()

	// NOTE: adjust GPS_SERIAL_PORT to match your setup: /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, etc.
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.GPSSerialPort, err)
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// Closing the port unblocks the pending read.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	var frame *gps.Frame
	if cfg.GPSOriginSet {
		frame = gps.NewFrame(cfg.GPSOriginLat, cfg.GPSOriginLon, cfg.GPSOriginAlt)
		log.Printf("gps: local ENU origin lat=%.6f lon=%.6f alt=%.1f",
			cfg.GPSOriginLat, cfg.GPSOriginLon, cfg.GPSOriginAlt)
	} else {
		log.Println("gps: local ENU origin will be the first valid fix")
	}

	return streamNMEA(ctx, port, gps.NewTracker(frame), client, cfg)
}

// streamNMEA publishes everything the tracker extracts from r until r is
// exhausted or ctx is done.
func streamNMEA(ctx context.Context, r io.Reader, tr *gps.Tracker, client *bus.Client, cfg *config.Config) error {
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			publishNMEA(line, tr, client, cfg)
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			log.Printf("gps: read error: %v", err)
			return err
		}
	}
}

func publishNMEA(line string, tr *gps.Tracker, client *bus.Client, cfg *config.Config) {
	u, err := tr.Handle(line)
	if err != nil {
		// noisy GPS or partial sentences
		return
	}

	if u.Position != nil {
		if err := client.Publish(cfg.TopicGPSPose, false, u.Position); err != nil {
			log.Printf("gps: publish error (position): %v", err)
		}
	}
	if u.Heading != nil {
		if err := client.Publish(cfg.TopicCompass, false, u.Heading); err != nil {
			log.Printf("gps: publish error (heading): %v", err)
		}
	}
	if u.Fix != nil && cfg.TopicGPSFix != "" {
		if err := client.Publish(cfg.TopicGPSFix, true, u.Fix); err != nil {
			log.Printf("gps: publish error (fix): %v", err)
		}
	}
}
