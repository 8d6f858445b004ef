package audio

import (
	"fmt"
	"sync"

	"github.com/lixenwraith/keysynth/parameter"
)

// Context owns an audio graph and the sample clock that renders it
// The graph is pulled from the destination in fixed render quanta; the clock
// only advances while the context is running
type Context struct {
	mu         sync.Mutex
	sampleRate int
	frames     uint64
	block      uint64
	state      ContextState
	dest       *destinationNode
	live       int
	out        Output
}

// NewContext creates a suspended context with no output attached
// Frames are produced only by calling Stream
func NewContext(sampleRate int) *Context {
	if sampleRate <= 0 {
		sampleRate = parameter.AudioSampleRate
	}
	c := &Context{
		sampleRate: sampleRate,
		state:      StateSuspended,
	}
	c.dest = &destinationNode{}
	c.dest.node.init(c, c.dest)
	return c
}

func (c *Context) attach(out Output) {
	c.mu.Lock()
	c.out = out
	c.mu.Unlock()
}

// SampleRate returns frames per second
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// CurrentTime returns seconds rendered since creation
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

// Frames returns the number of frames rendered since creation
func (c *Context) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Context) now() float64 {
	return float64(c.frames) / float64(c.sampleRate)
}

// State returns the lifecycle state
func (c *Context) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the clock; resuming a running context is a no-op
func (c *Context) Resume() error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrContextClosed
	case StateRunning:
		c.mu.Unlock()
		return nil
	}
	c.state = StateRunning
	out := c.out
	c.mu.Unlock()

	// Device calls happen outside mu: the device callback takes mu in Stream
	if out != nil {
		if err := out.Resume(); err != nil {
			return fmt.Errorf("resume output: %w", err)
		}
	}
	return nil
}

// Suspend freezes the clock; the device keeps receiving silence
func (c *Context) Suspend() error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrContextClosed
	case StateSuspended:
		c.mu.Unlock()
		return nil
	}
	c.state = StateSuspended
	out := c.out
	c.mu.Unlock()

	if out != nil {
		if err := out.Suspend(); err != nil {
			return fmt.Errorf("suspend output: %w", err)
		}
	}
	return nil
}

// Close stops rendering and shuts the output down
// Nodes of a closed context refuse every further operation
func (c *Context) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrContextClosed
	}
	c.state = StateClosed
	out := c.out
	c.out = nil
	c.mu.Unlock()

	if out != nil {
		return out.Close()
	}
	return nil
}

// Destination returns the node feeding the device
func (c *Context) Destination() Node {
	return c.dest
}

// LiveNodes returns the number of created and not yet released nodes
func (c *Context) LiveNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// NewOscillator creates an unstarted oscillator
func (c *Context) NewOscillator(w Waveform) *OscillatorNode {
	o := newOscillator(c, w)
	c.track()
	return o
}

// NewBiquadFilter creates a filter with default frequency and Q
func (c *Context) NewBiquadFilter(t FilterType) *BiquadFilterNode {
	f := newBiquadFilter(c, t)
	c.track()
	return f
}

// NewGain creates a unity gain node
func (c *Context) NewGain() *GainNode {
	g := &GainNode{gbuf: make([]float64, parameter.AudioRenderQuantum)}
	g.node.init(c, g)
	g.Gain = newParam(c, 1)
	c.track()
	return g
}

func (c *Context) track() {
	c.mu.Lock()
	c.live++
	c.mu.Unlock()
}

// Stream renders len(samples) stereo frames, duplicating the mono mix to both channels
// A suspended context yields silence without advancing the clock; a closed one
// reports false
func (c *Context) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return 0, false
	case StateSuspended:
		clear(samples)
		return len(samples), true
	}

	for pos := 0; pos < len(samples); {
		n := min(parameter.AudioRenderQuantum, len(samples)-pos)
		c.block++
		mix := c.dest.pull(c.block, n, c.frames)
		for i, v := range mix {
			samples[pos+i][0] = v
			samples[pos+i][1] = v
		}
		c.frames += uint64(n)
		pos += n
	}
	return len(samples), true
}

// Err satisfies beep.Streamer
func (c *Context) Err() error {
	return nil
}
