// Package synth owns the voice lifecycle: one voice per key, click-free envelopes and
// deferred, cancellable teardown of audio graph nodes
package synth

import (
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/engine"
	"github.com/lixenwraith/keysynth/keymap"
	"github.com/lixenwraith/keysynth/parameter"
)

// Stats counts accepted and rejected note events
type Stats struct {
	Started   uint64
	Released  uint64
	TornDown  uint64
	Failed    uint64
	Unmapped  uint64
	Muted     uint64
	NotReady  uint64
	Duplicate uint64
}

// Option configures a Manager
type Option func(*Manager)

// WithObserver registers fn to be told when a key starts or stops sounding
// Called outside the manager lock
func WithObserver(fn func(key keymap.KeyID, sounding bool)) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

// WithTeardownMargin overrides the delay added after a release before nodes are destroyed
func WithTeardownMargin(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.margin = d
		}
	}
}

// Manager is the sole owner of the active voice table
type Manager struct {
	ctx      audio.Backend
	sched    *engine.Scheduler
	margin   time.Duration
	observer func(keymap.KeyID, bool)

	mu       sync.Mutex
	voices   map[keymap.KeyID]*Voice
	sounding map[keymap.KeyID]struct{}
	stats    Stats
	closed   bool

	muted atomic.Bool
	ready atomic.Bool
}

// NewManager creates a manager on ctx
// A nil or closed ctx yields a manager that is permanently not ready
func NewManager(ctx audio.Backend, sched *engine.Scheduler, opts ...Option) *Manager {
	if sched == nil {
		sched = engine.NewScheduler(engine.NewRealClock())
	}
	m := &Manager{
		ctx:      ctx,
		sched:    sched,
		margin:   parameter.TeardownMargin,
		voices:   make(map[keymap.KeyID]*Voice),
		sounding: make(map[keymap.KeyID]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ready.Store(ctx != nil && ctx.State() != audio.StateClosed)
	return m
}

// NoteOn starts a voice for key
// Ignored for unmapped keys, while muted or not ready, and while any voice for key exists
func (m *Manager) NoteOn(key keymap.KeyID) {
	key = keymap.Normalize(rune(key))
	spec, mapped := keymap.Lookup(key)

	m.mu.Lock()
	switch {
	case !mapped:
		m.stats.Unmapped++
		m.mu.Unlock()
		return
	case !m.IsReady():
		m.stats.NotReady++
		m.mu.Unlock()
		return
	case m.muted.Load():
		m.stats.Muted++
		m.mu.Unlock()
		return
	}
	if _, exists := m.voices[key]; exists {
		m.stats.Duplicate++
		m.mu.Unlock()
		return
	}

	// Output may require a first user gesture before it runs
	if m.ctx.State() == audio.StateSuspended {
		if err := m.ctx.Resume(); err != nil {
			log.Printf("synth: resume audio: %v", err)
		}
	}

	v := newVoice(m.ctx, key, spec)
	if err := v.start(); err != nil {
		m.stats.Failed++
		m.mu.Unlock()
		log.Printf("synth: note %s: %v", key, err)
		return
	}
	m.voices[key] = v
	m.sounding[key] = struct{}{}
	m.stats.Started++
	m.mu.Unlock()

	m.notify(key, true)
}

// NoteOff releases the voice for key and schedules its teardown
// The table entry stays until teardown runs, blocking a re-trigger of the same key
func (m *Manager) NoteOff(key keymap.KeyID) {
	key = keymap.Normalize(rune(key))

	m.mu.Lock()
	v, ok := m.voices[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	d, ok := v.release()
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sounding, key)
	m.stats.Released++

	v.teardown = m.sched.After(d+m.margin, func() { m.teardown(key, v) })
	if v.teardown.Cancelled() {
		// Scheduler already stopped
		m.removeLocked(key, v)
	}
	m.mu.Unlock()

	m.notify(key, false)
}

// teardown runs on the scheduler; the voice may have been replaced or shut down meanwhile
func (m *Manager) teardown(key keymap.KeyID, v *Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(key, v)
}

func (m *Manager) removeLocked(key keymap.KeyID, v *Voice) {
	if m.voices[key] != v {
		return
	}
	delete(m.voices, key)
	v.terminate()
	m.stats.TornDown++
}

// ReleaseAll releases every sounding key
func (m *Manager) ReleaseAll() {
	for _, key := range m.Sounding() {
		m.NoteOff(key)
	}
}

// Shutdown force-terminates every voice and cancels pending teardowns
// The manager stays not ready afterwards; closing the audio context is the caller's job
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.ready.Store(false)

	for key, v := range m.voices {
		v.terminate()
		delete(m.voices, key)
		m.stats.TornDown++
	}
	silenced := make([]keymap.KeyID, 0, len(m.sounding))
	for key := range m.sounding {
		silenced = append(silenced, key)
	}
	clear(m.sounding)
	m.mu.Unlock()

	if n := m.sched.CancelAll(); n > 0 {
		log.Printf("synth: shutdown cancelled %d pending tasks", n)
	}

	slices.Sort(silenced)
	for _, key := range silenced {
		m.notify(key, false)
	}
}

// SetMuted blocks or allows new notes; sounding voices are unaffected
func (m *Manager) SetMuted(muted bool) {
	m.muted.Store(muted)
}

// Muted returns current mute state
func (m *Manager) Muted() bool {
	return m.muted.Load()
}

// ToggleMute flips mute state, returns true if now muted
func (m *Manager) ToggleMute() bool {
	for {
		old := m.muted.Load()
		if m.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsReady reports whether the audio backend can accept notes
func (m *Manager) IsReady() bool {
	return m.ready.Load() && m.ctx.State() != audio.StateClosed
}

// IsSounding is true from an accepted NoteOn until the matching NoteOff
func (m *Manager) IsSounding(key keymap.KeyID) bool {
	key = keymap.Normalize(rune(key))
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sounding[key]
	return ok
}

// ClassOf returns the voice class for display
func (m *Manager) ClassOf(key keymap.KeyID) keymap.VoiceClass {
	return keymap.ClassOf(key)
}

// Sounding returns the sounding keys in order
func (m *Manager) Sounding() []keymap.KeyID {
	m.mu.Lock()
	keys := make([]keymap.KeyID, 0, len(m.sounding))
	for key := range m.sounding {
		keys = append(keys, key)
	}
	m.mu.Unlock()

	slices.Sort(keys)
	return keys
}

// ActiveVoices returns the table size, releasing voices included
func (m *Manager) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// VoiceState returns the lifecycle state of key's voice, false if none exists
func (m *Manager) VoiceState(key keymap.KeyID) (VoiceState, bool) {
	key = keymap.Normalize(rune(key))
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.voices[key]
	if !ok {
		return StateIdle, false
	}
	return v.State(), true
}

// Stats returns a snapshot of the event counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Manager) notify(key keymap.KeyID, sounding bool) {
	if m.observer != nil {
		m.observer(key, sounding)
	}
}
