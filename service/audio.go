package service

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/config"
)

// AudioService owns the audio context
// Handles graceful degradation when no audio backend is available
type AudioService struct {
	ctx      *audio.Context
	err      error
	disabled atomic.Bool
	open     func(*audio.AudioConfig) (*audio.Context, error)
}

// NewAudioService creates a new audio service
func NewAudioService() *AudioService {
	return &AudioService{open: audio.Open}
}

// Name implements Service
func (s *AudioService) Name() string {
	return NameAudio
}

// Dependencies implements Service
func (s *AudioService) Dependencies() []string {
	return nil
}

// Init implements Service
// Opens the configured backend; sets disabled flag on failure (no error returned)
func (s *AudioService) Init(cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, err := s.open(cfg.AudioConfig())
	if err != nil {
		log.Printf("audio: disabled: %v", err)
		s.err = err
		s.disabled.Store(true)
		return nil
	}
	s.ctx = ctx
	return nil
}

// Start implements Service
// The context stays suspended until the first note resumes it
func (s *AudioService) Start() error {
	return nil
}

// Stop implements Service
func (s *AudioService) Stop() error {
	if s.ctx == nil {
		return nil
	}
	if err := s.ctx.Close(); err != nil && !errors.Is(err, audio.ErrContextClosed) {
		return err
	}
	return nil
}

// IsDisabled returns true if audio is unavailable
func (s *AudioService) IsDisabled() bool {
	return s.disabled.Load()
}

// Err returns the reason audio is disabled
func (s *AudioService) Err() error {
	return s.err
}

// Backend returns the audio context, nil if disabled
// The result is a nil interface, never a typed nil
func (s *AudioService) Backend() audio.Backend {
	if s.disabled.Load() || s.ctx == nil {
		return nil
	}
	return s.ctx
}
