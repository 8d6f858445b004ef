package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration determines device latency and pump tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// AudioRenderQuantum is the graph block size in frames
	AudioRenderQuantum = 128

	// AudioMasterVolume is the default linear output gain
	AudioMasterVolume = 1.0
)

// Pluck Voice
const (
	PluckAttack   = 10 * time.Millisecond
	PluckRelease  = 300 * time.Millisecond
	PluckPeakGain = 0.25
	PluckCutoff   = 2000.0 // Hz
	PluckQ        = 1.0
	PluckHarmonic = 2.0 // secondary oscillator ratio, one octave up
)

// Pad Voice
const (
	PadAttack   = 300 * time.Millisecond
	PadRelease  = 1500 * time.Millisecond
	PadPeakGain = 0.15
	PadCutoff   = 1200.0 // Hz
	PadQ        = 2.0
	PadDetune   = 1.01 // secondary oscillator ratio, chorus
)

// Voice Lifecycle
const (
	// TeardownMargin is added to the release time before nodes are destroyed
	TeardownMargin = 100 * time.Millisecond
)

// Input
const (
	// HoldTimeout ends a keyboard note when no key repeat arrives in time
	// Terminals report presses only; repeats keep the note alive
	HoldTimeout = 600 * time.Millisecond

	// FrameUpdateInterval drives UI redraw and hold expiry
	FrameUpdateInterval = 16 * time.Millisecond
)
