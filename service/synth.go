package service

import (
	"errors"
	"log"

	"github.com/lixenwraith/keysynth/config"
	"github.com/lixenwraith/keysynth/synth"
)

var errNoScheduler = errors.New("scheduler not initialized")

// SynthService owns the voice manager
type SynthService struct {
	audio *AudioService
	sched *SchedulerService
	opts  []synth.Option
	mgr   *synth.Manager
}

// NewSynthService creates a synth service on the given audio and scheduler services
func NewSynthService(a *AudioService, s *SchedulerService, opts ...synth.Option) *SynthService {
	return &SynthService{audio: a, sched: s, opts: opts}
}

// Name implements Service
func (s *SynthService) Name() string {
	return NameSynth
}

// Dependencies implements Service
func (s *SynthService) Dependencies() []string {
	return []string{NameAudio, NameScheduler}
}

// Init implements Service
// A disabled audio service yields a manager that is never ready
func (s *SynthService) Init(cfg *config.Config) error {
	sched := s.sched.Scheduler()
	if sched == nil {
		return errNoScheduler
	}
	s.mgr = synth.NewManager(s.audio.Backend(), sched, s.opts...)
	if cfg != nil {
		s.mgr.SetMuted(cfg.Audio.Muted)
	}
	if !s.mgr.IsReady() {
		log.Printf("synth: audio not ready, notes will be ignored")
	}
	return nil
}

// Start implements Service
func (s *SynthService) Start() error {
	return nil
}

// Stop implements Service
func (s *SynthService) Stop() error {
	if s.mgr != nil {
		s.mgr.Shutdown()
	}
	return nil
}

// Manager returns the voice manager, nil before Init
func (s *SynthService) Manager() *synth.Manager {
	return s.mgr
}
