package audio

import (
	"errors"
	"math"
	"testing"
)

// render pulls frames from the context and returns the left channel
func render(c *Context, frames int) []float64 {
	buf := make([][2]float64, frames)
	c.Stream(buf)
	out := make([]float64, frames)
	for i, f := range buf {
		out[i] = f[0]
	}
	return out
}

func peak(buf []float64) float64 {
	m := 0.0
	for _, v := range buf {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func TestContextStartsSuspended(t *testing.T) {
	ctx := NewContext(44100)

	if ctx.State() != StateSuspended {
		t.Fatalf("Expected suspended, got %v", ctx.State())
	}

	render(ctx, 1000)
	if ctx.CurrentTime() != 0 {
		t.Errorf("Expected clock frozen while suspended, got %f", ctx.CurrentTime())
	}
}

func TestContextClockAdvances(t *testing.T) {
	ctx := NewContext(1000)
	if err := ctx.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	render(ctx, 500)
	if ctx.CurrentTime() != 0.5 {
		t.Errorf("Expected 0.5s after 500 frames at 1kHz, got %f", ctx.CurrentTime())
	}
	if ctx.Frames() != 500 {
		t.Errorf("Expected 500 frames, got %d", ctx.Frames())
	}

	// Resume is idempotent
	if err := ctx.Resume(); err != nil {
		t.Errorf("Expected second Resume to succeed, got %v", err)
	}

	if err := ctx.Suspend(); err != nil {
		t.Fatalf("Suspend failed: %v", err)
	}
	render(ctx, 500)
	if ctx.CurrentTime() != 0.5 {
		t.Errorf("Expected clock to hold at 0.5 while suspended, got %f", ctx.CurrentTime())
	}
}

func TestContextClose(t *testing.T) {
	ctx := NewContext(44100)
	g := ctx.NewGain()

	if err := ctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if ctx.State() != StateClosed {
		t.Errorf("Expected closed, got %v", ctx.State())
	}

	buf := make([][2]float64, 16)
	if _, ok := ctx.Stream(buf); ok {
		t.Error("Expected Stream to report false after close")
	}

	if !errors.Is(ctx.Close(), ErrContextClosed) {
		t.Error("Expected second Close to return ErrContextClosed")
	}
	if !errors.Is(ctx.Resume(), ErrContextClosed) {
		t.Error("Expected Resume on closed context to fail")
	}
	if !errors.Is(g.Connect(ctx.Destination()), ErrContextClosed) {
		t.Error("Expected Connect on closed context to fail")
	}
}

func TestNodeConnectErrors(t *testing.T) {
	a := NewContext(44100)
	b := NewContext(44100)

	ga := a.NewGain()
	gb := b.NewGain()

	if !errors.Is(ga.Connect(gb), ErrForeignNode) {
		t.Error("Expected ErrForeignNode connecting across contexts")
	}
	if !errors.Is(ga.Disconnect(), ErrNotConnected) {
		t.Error("Expected ErrNotConnected for unconnected node")
	}

	if err := ga.Connect(a.Destination()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	// Duplicate connection is a no-op
	if err := ga.Connect(a.Destination()); err != nil {
		t.Errorf("Expected duplicate Connect to succeed, got %v", err)
	}
	if err := ga.Disconnect(); err != nil {
		t.Errorf("Disconnect failed: %v", err)
	}
}

func TestNodeReleaseTracksLiveNodes(t *testing.T) {
	ctx := NewContext(44100)

	osc := ctx.NewOscillator(WaveSine)
	f := ctx.NewBiquadFilter(FilterLowpass)
	g := ctx.NewGain()
	if ctx.LiveNodes() != 3 {
		t.Fatalf("Expected 3 live nodes, got %d", ctx.LiveNodes())
	}

	osc.Connect(f)
	f.Connect(g)
	g.Connect(ctx.Destination())

	if err := f.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !errors.Is(f.Release(), ErrNodeReleased) {
		t.Error("Expected second Release to return ErrNodeReleased")
	}
	if ctx.LiveNodes() != 2 {
		t.Errorf("Expected 2 live nodes, got %d", ctx.LiveNodes())
	}

	// Released node is detached in both directions
	if len(osc.outputs) != 0 || len(g.inputs) != 0 {
		t.Errorf("Expected released filter detached, osc outputs=%d gain inputs=%d", len(osc.outputs), len(g.inputs))
	}
	if !errors.Is(osc.Connect(f), ErrNodeReleased) {
		t.Error("Expected Connect to released node to fail")
	}

	if !errors.Is(ctx.Destination().Release(), ErrNodeReleased) {
		t.Error("Expected destination to refuse Release")
	}
}

func TestGainEnvelopeRendered(t *testing.T) {
	ctx := NewContext(1000)

	// 1Hz square holds +1 for the first half second
	osc := ctx.NewOscillator(WaveSquare)
	osc.Frequency.SetValue(1)
	g := ctx.NewGain()
	osc.Connect(g)
	g.Connect(ctx.Destination())

	g.Gain.SetValueAtTime(0, 0)
	g.Gain.LinearRampToValueAtTime(0.4, 0.1)
	osc.Start(0)
	ctx.Resume()

	out := render(ctx, 300)
	if out[0] != 0 {
		t.Errorf("Expected silence at t=0, got %f", out[0])
	}
	if !near(out[50], 0.2) {
		t.Errorf("Expected 0.2 halfway through attack, got %f", out[50])
	}
	for i := 100; i < 300; i++ {
		if !near(out[i], 0.4) {
			t.Fatalf("Frame %d: expected sustained 0.4, got %f", i, out[i])
		}
	}
}

func TestMixSumsVoices(t *testing.T) {
	ctx := NewContext(1000)

	for range 3 {
		osc := ctx.NewOscillator(WaveSquare)
		osc.Frequency.SetValue(1)
		g := ctx.NewGain()
		g.Gain.SetValue(0.1)
		osc.Connect(g)
		g.Connect(ctx.Destination())
		osc.Start(0)
	}
	ctx.Resume()

	out := render(ctx, 200)
	if !near(out[100], 0.3) {
		t.Errorf("Expected three voices to sum to 0.3, got %f", out[100])
	}
}
