// Package service wires long-lived subsystems into a dependency-ordered lifecycle
package service

import "github.com/lixenwraith/keysynth/config"

// Service defines the lifecycle interface for infrastructure subsystems
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init(cfg) - configuration from resolved settings
//  3. Start() - launch background work
//  4. [runtime operation]
//  5. Stop() - halt work, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	// Init configures the service
	Init(cfg *config.Config) error

	// Start begins service operation
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent
	Stop() error
}

// Service names
const (
	NameAudio     = "audio"
	NameScheduler = "scheduler"
	NameSynth     = "synth"
)
