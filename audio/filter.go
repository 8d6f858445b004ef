package audio

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const minFilterFreq = 10.0

// BiquadFilterNode is a second-order RBJ filter
// Frequency and Q are read once per render block
type BiquadFilterNode struct {
	node
	Frequency *AudioParam
	Q         *AudioParam

	typ     FilterType
	section *biquad.Section
	curFreq float64
	curQ    float64
}

// Type returns the filter response
func (f *BiquadFilterNode) Type() FilterType {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.typ
}

// SetType switches the response, keeping filter state
func (f *BiquadFilterNode) SetType(t FilterType) {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	if t != f.typ {
		f.typ = t
		f.curFreq = 0
	}
}

func (f *BiquadFilterNode) process(in, out []float64, start uint64) {
	sr := float64(f.ctx.sampleRate)
	t0 := float64(start) / sr
	f.Frequency.compact(t0)
	f.Q.compact(t0)

	freq := clampFreq(f.Frequency.valueAt(t0), sr)
	q := f.Q.valueAt(t0)
	if q <= 0 {
		q = 1e-4
	}
	if freq != f.curFreq || q != f.curQ {
		f.section.Coefficients = designFilter(f.typ, freq, q, sr)
		f.curFreq, f.curQ = freq, q
	}

	if in == nil {
		clear(out)
	} else {
		copy(out, in)
	}
	// Silent input still runs so the tail decays
	f.section.ProcessBlock(out)
}

func designFilter(t FilterType, freq, q, sr float64) biquad.Coefficients {
	switch t {
	case FilterHighpass:
		return design.Highpass(freq, q, sr)
	case FilterBandpass:
		return design.Bandpass(freq, q, sr)
	default:
		return design.Lowpass(freq, q, sr)
	}
}

func clampFreq(freq, sr float64) float64 {
	nyquist := sr * 0.49
	switch {
	case freq < minFilterFreq:
		return minFilterFreq
	case freq > nyquist:
		return nyquist
	default:
		return freq
	}
}

func newBiquadFilter(ctx *Context, t FilterType) *BiquadFilterNode {
	f := &BiquadFilterNode{
		typ:     t,
		section: biquad.NewSection(biquad.Coefficients{}),
	}
	f.node.init(ctx, f)
	f.Frequency = newParam(ctx, 350)
	f.Q = newParam(ctx, 1)
	return f
}
