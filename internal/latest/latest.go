// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package latest holds the most recent sample received on a feed.
package latest

import "sync"

// Reader is a non-blocking accessor for the most recent sample.
// Get returns the zero value until a sample has been received.
type Reader[T any] interface {
	Get() T
}

// Value is a latest-value cache safe for one writer and many readers.
// The zero Value is ready to use.
type Value[T any] struct {
	mu    sync.RWMutex
	v     T
	have  bool
	count uint64
}

// Set replaces the stored sample.
func (l *Value[T]) Set(v T) {
	l.mu.Lock()
	l.v = v
	l.have = true
	l.count++
	l.mu.Unlock()
}

// Get returns the stored sample, or the zero value if none was set.
func (l *Value[T]) Get() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v
}

// Load returns the stored sample and whether one was ever set.
func (l *Value[T]) Load() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v, l.have
}

// Count returns how many samples have been set.
func (l *Value[T]) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}
