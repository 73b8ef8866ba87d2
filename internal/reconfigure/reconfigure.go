// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package reconfigure owns the runtime-tunable feedback selection parameter.
//
// A Server validates every update against the parameter's range, bumps a
// version counter and hands the accepted value to exactly one registered
// Callback. Callbacks are never invoked concurrently.
package reconfigure

import (
	"errors"
	"fmt"
	"sync"
)

// Range of the "feedback" parameter: 0=GPS+Compass, 1=Encoder+Compass,
// 2=Pure GPS.
const (
	FeedbackMin     = 0
	FeedbackMax     = 2
	FeedbackDefault = 0
)

// LevelAll is the level passed to a callback when it is first registered.
const LevelAll = ^uint32(0)

// ErrOutOfRange is returned for parameter values outside their range.
var ErrOutOfRange = errors.New("value out of range")

// Config is the set of runtime-tunable parameters.
type Config struct {
	Feedback int `json:"feedback"`
}

// Validate checks c against the parameter ranges.
func (c Config) Validate() error {
	if c.Feedback < FeedbackMin || c.Feedback > FeedbackMax {
		return fmt.Errorf("feedback %d not in [%d, %d]: %w", c.Feedback, FeedbackMin, FeedbackMax, ErrOutOfRange)
	}
	return nil
}

// State is the accepted Config together with its version.
type State struct {
	Config
	Version uint64 `json:"version"`
}

// Callback receives every accepted Config. level is 0 for updates and
// LevelAll for the initial call made by SetCallback.
type Callback func(cfg Config, level uint32)

// Server holds the current Config and dispatches updates.
type Server struct {
	mu    sync.Mutex
	cb    Callback
	state State
}

// NewServer returns a Server starting at initial with version 0.
func NewServer(initial Config) (*Server, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("initial config: %w", err)
	}
	return &Server{state: State{Config: initial}}, nil
}

// SetCallback registers cb, replacing any previous callback, and invokes it
// once with the current Config.
func (s *Server) SetCallback(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cb = cb
	if cb != nil {
		cb(s.state.Config, LevelAll)
	}
}

// Apply validates cfg, and if accepted stores it, bumps the version and
// invokes the callback. Rejected updates leave the state untouched.
// The callback must not call back into the Server.
func (s *Server) Apply(cfg Config) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return s.state, err
	}
	s.state = State{Config: cfg, Version: s.state.Version + 1}
	if s.cb != nil {
		s.cb(cfg, 0)
	}
	return s.state, nil
}

// State returns the current Config and version.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
