package audio

import (
	"errors"
	"fmt"
)

// Waveform selects the oscillator shape
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSawtooth
	WaveSquare
)

var waveformNames = [...]string{"sine", "triangle", "sawtooth", "square"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// FilterType selects the biquad response
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
)

var filterNames = [...]string{"lowpass", "highpass", "bandpass"}

func (f FilterType) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return fmt.Sprintf("FilterType(%d)", int(f))
	}
	return filterNames[f]
}

// ContextState mirrors the lifecycle of an audio context
type ContextState int

const (
	StateSuspended ContextState = iota
	StateRunning
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// BackendType identifies the audio output backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrUnknownBackend = errors.New("unknown audio backend")
	ErrBackendInit    = errors.New("audio backend initialization failed")
	ErrPipeClosed     = errors.New("audio pipe closed")
	ErrContextClosed  = errors.New("audio context closed")
	ErrNodeStopped    = errors.New("node already stopped")
	ErrAlreadyStarted = errors.New("node already started")
	ErrNotStarted     = errors.New("node not started")
	ErrNotConnected   = errors.New("node not connected")
	ErrForeignNode    = errors.New("node belongs to another context")
	ErrNodeReleased   = errors.New("node released")
)
