package service

import (
	"github.com/lixenwraith/keysynth/config"
	"github.com/lixenwraith/keysynth/engine"
)

// SchedulerService owns the deferred task scheduler used for voice teardown
type SchedulerService struct {
	clock engine.Clock
	sched *engine.Scheduler
}

// NewSchedulerService creates a scheduler service on clock, nil for wall time
func NewSchedulerService(clock engine.Clock) *SchedulerService {
	if clock == nil {
		clock = engine.NewRealClock()
	}
	return &SchedulerService{clock: clock}
}

// Name implements Service
func (s *SchedulerService) Name() string {
	return NameScheduler
}

// Dependencies implements Service
func (s *SchedulerService) Dependencies() []string {
	return nil
}

// Init implements Service
func (s *SchedulerService) Init(*config.Config) error {
	s.sched = engine.NewScheduler(s.clock)
	return nil
}

// Start implements Service
func (s *SchedulerService) Start() error {
	return nil
}

// Stop implements Service
// Pending tasks are cancelled; Scheduler.Stop is idempotent
func (s *SchedulerService) Stop() error {
	if s.sched != nil {
		s.sched.Stop()
	}
	return nil
}

// Scheduler returns the scheduler, nil before Init
func (s *SchedulerService) Scheduler() *engine.Scheduler {
	return s.sched
}
