// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/state_feedback/internal/app"
	"github.com/relabs-tech/state_feedback/internal/config"
)

func main() {
	configPath := flag.String("config", "./state_feedback_config.txt", "path to configuration file")
	showCandidates := flag.Bool("candidates", false, "also print all three candidate poses")
	flag.Parse()

	log.Println("starting state-feedback console (MQTT subscriber)")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, cfg, os.Stdout, *showCandidates); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
