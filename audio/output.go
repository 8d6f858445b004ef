package audio

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lixenwraith/keysynth/parameter"
)

// Backend names accepted by AudioConfig.Backend
const (
	BackendAuto    = "auto"
	BackendSpeaker = "speaker"
	BackendOto     = "oto"
	BackendPipe    = "pipe"
	BackendNull    = "null"
)

// BackendNames lists accepted backend names in selection order
var BackendNames = []string{BackendAuto, BackendSpeaker, BackendOto, BackendPipe, BackendNull}

// Output drives a Context into a device
type Output interface {
	Suspend() error
	Resume() error
	Close() error
}

// AudioConfig holds output settings
type AudioConfig struct {
	Backend        string
	SampleRate     int
	BufferDuration time.Duration
	MasterVolume   float64 // 0.0 to 1.0
}

// DefaultAudioConfig returns sensible defaults
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		Backend:        BackendAuto,
		SampleRate:     parameter.AudioSampleRate,
		BufferDuration: parameter.AudioBufferDuration,
		MasterVolume:   parameter.AudioMasterVolume,
	}
}

// Open creates a suspended context attached to the configured backend
// "auto" tries the speaker, then a CLI pipe player, and fails with ErrNoAudioBackend
func Open(cfg *AudioConfig) (*Context, error) {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	c := *cfg
	if c.SampleRate <= 0 {
		c.SampleRate = parameter.AudioSampleRate
	}
	if c.BufferDuration <= 0 {
		c.BufferDuration = parameter.AudioBufferDuration
	}

	ctx := NewContext(c.SampleRate)
	out, err := openOutput(ctx, &c)
	if err != nil {
		return nil, err
	}
	ctx.attach(out)
	return ctx, nil
}

func openOutput(ctx *Context, cfg *AudioConfig) (Output, error) {
	switch cfg.Backend {
	case "", BackendAuto:
		out, err := openSpeaker(ctx, cfg)
		if err == nil {
			return out, nil
		}
		log.Printf("audio: speaker unavailable: %v", err)

		out, perr := openPipe(ctx, cfg)
		if perr == nil {
			return out, nil
		}
		log.Printf("audio: pipe unavailable: %v", perr)
		return nil, fmt.Errorf("%w: %w", ErrNoAudioBackend, errors.Join(err, perr))
	case BackendSpeaker:
		return openSpeaker(ctx, cfg)
	case BackendOto:
		return openOto(ctx, cfg)
	case BackendPipe:
		return openPipe(ctx, cfg)
	case BackendNull:
		return openNull(ctx, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func clampSample(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
