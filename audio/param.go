package audio

import (
	"sort"
)

type automationKind uint8

const (
	automationSet automationKind = iota
	automationLinearRamp
)

type automationEvent struct {
	kind  automationKind
	time  float64 // seconds on the context clock
	value float64
}

// AudioParam is a sample-accurate automatable value owned by a node
// Scheduling follows Web Audio semantics for set and linear ramp events:
// a ramp interpolates from the preceding event to its own time and value
type AudioParam struct {
	ctx          *Context
	defaultValue float64
	events       []automationEvent
}

func newParam(ctx *Context, value float64) *AudioParam {
	return &AudioParam{
		ctx:          ctx,
		defaultValue: value,
	}
}

// Value returns the automation value at the context's current time
func (p *AudioParam) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(p.ctx.now())
}

// ValueAt returns the automation value at time t
func (p *AudioParam) ValueAt(t float64) float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(t)
}

// SetValue discards all automation and holds v
func (p *AudioParam) SetValue(v float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.events = p.events[:0]
	p.defaultValue = v
}

// SetValueAtTime jumps to v at time t
func (p *AudioParam) SetValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(automationEvent{kind: automationSet, time: clampTime(t), value: v})
}

// LinearRampToValueAtTime ramps from the preceding event to v, arriving at time t
func (p *AudioParam) LinearRampToValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(automationEvent{kind: automationLinearRamp, time: clampTime(t), value: v})
}

// CancelScheduledValues removes every event at or after t
// A ramp in flight at t is removed entirely; the value falls back to the preceding event
func (p *AudioParam) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.cancel(clampTime(t))
}

// CancelAndHoldAtTime cancels events at or after t and pins the value reached at t
// Returns the held value
func (p *AudioParam) CancelAndHoldAtTime(t float64) float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()

	t = clampTime(t)
	v := p.valueAt(t)
	p.cancel(t)
	p.insert(automationEvent{kind: automationSet, time: t, value: v})
	return v
}

// Events returns the number of scheduled automation events
func (p *AudioParam) Events() int {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return len(p.events)
}

// insert keeps events ordered by time, later insertions after equal times
func (p *AudioParam) insert(ev automationEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > ev.time })
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

func (p *AudioParam) cancel(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

func (p *AudioParam) valueAt(t float64) float64 {
	v := p.defaultValue
	prev := 0.0
	for _, ev := range p.events {
		if ev.time <= t {
			v, prev = ev.value, ev.time
			continue
		}
		if ev.kind == automationLinearRamp {
			span := ev.time - prev
			if span <= 0 {
				return ev.value
			}
			return v + (ev.value-v)*(t-prev)/span
		}
		break
	}
	return v
}

// compact drops events fully in the past, keeping the last one at or before t
func (p *AudioParam) compact(t float64) {
	last := -1
	for i, ev := range p.events {
		if ev.time > t {
			break
		}
		last = i
	}
	if last <= 0 {
		return
	}
	n := copy(p.events, p.events[last:])
	p.events = p.events[:n]
}

// fill writes per-frame values starting at frame index start
func (p *AudioParam) fill(dst []float64, start uint64, sampleRate int) {
	t0 := float64(start) / float64(sampleRate)
	p.compact(t0)

	if len(p.events) == 0 || (len(p.events) == 1 && p.events[0].time <= t0) {
		v := p.valueAt(t0)
		for i := range dst {
			dst[i] = v
		}
		return
	}

	sr := float64(sampleRate)
	for i := range dst {
		dst[i] = p.valueAt(float64(start+uint64(i)) / sr)
	}
}

func clampTime(t float64) float64 {
	if t < 0 {
		return 0
	}
	return t
}
