package audio

import (
	"math"

	"github.com/lixenwraith/keysynth/parameter"
)

// OscillatorNode is a periodic source with an automatable frequency
// Silent until Start, and again from the Stop time onward
type OscillatorNode struct {
	node
	Frequency *AudioParam

	wave    Waveform
	phase   float64 // [0,1)
	startAt float64
	stopAt  float64
	started bool
	stopped bool
	fbuf    []float64
}

// Waveform returns the current shape
func (o *OscillatorNode) Waveform() Waveform {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.wave
}

// SetWaveform changes shape without resetting phase
func (o *OscillatorNode) SetWaveform(w Waveform) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.wave = w
}

// Start begins output at time when
func (o *OscillatorNode) Start(when float64) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	switch {
	case o.ctx.state == StateClosed:
		return ErrContextClosed
	case o.released:
		return ErrNodeReleased
	case o.started:
		return ErrAlreadyStarted
	}
	o.started = true
	o.startAt = clampTime(when)
	return nil
}

// Stop ends output at time when; an oscillator stops only once
func (o *OscillatorNode) Stop(when float64) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()

	switch {
	case o.ctx.state == StateClosed:
		return ErrContextClosed
	case !o.started:
		return ErrNotStarted
	case o.stopped:
		return ErrNodeStopped
	}
	o.stopped = true
	o.stopAt = math.Max(clampTime(when), o.startAt)
	return nil
}

// Playing reports whether the oscillator is producing output at the current time
func (o *OscillatorNode) Playing() bool {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.activeAt(o.ctx.now())
}

func (o *OscillatorNode) activeAt(t float64) bool {
	if !o.started || t < o.startAt {
		return false
	}
	return !o.stopped || t < o.stopAt
}

func (o *OscillatorNode) process(_, out []float64, start uint64) {
	sr := float64(o.ctx.sampleRate)
	freq := o.fbuf[:len(out)]
	o.Frequency.fill(freq, start, o.ctx.sampleRate)

	for i := range out {
		if !o.activeAt(float64(start+uint64(i)) / sr) {
			out[i] = 0
			continue
		}
		out[i] = shape(o.wave, o.phase)
		o.phase += freq[i] / sr
		o.phase -= math.Floor(o.phase)
	}
}

// shape evaluates one period of w at phase p in [0,1), peak amplitude 1
func shape(w Waveform, p float64) float64 {
	switch w {
	case WaveTriangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	case WaveSawtooth:
		return 2*p - 1
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

func newOscillator(ctx *Context, w Waveform) *OscillatorNode {
	o := &OscillatorNode{
		wave: w,
		fbuf: make([]float64, parameter.AudioRenderQuantum),
	}
	o.node.init(ctx, o)
	o.Frequency = newParam(ctx, 440)
	return o
}
