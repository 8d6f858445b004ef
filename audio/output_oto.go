package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/lixenwraith/keysynth/parameter"
)

const otoBytesPerFrame = parameter.AudioChannels * 4 // float32 LE

// otoOutput feeds a context straight into an oto player
// oto pulls through Read on its own goroutine
type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player
	src    *Context
	gain   float64

	mu     sync.Mutex // Guards frames
	frames [][2]float64
}

func openOto(src *Context, cfg *AudioConfig) (Output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: parameter.AudioChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.BufferDuration,
	}

	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: oto: %v", ErrBackendInit, err)
	}
	<-ready

	o := &otoOutput{
		ctx:  octx,
		src:  src,
		gain: cfg.MasterVolume,
	}
	o.player = octx.NewPlayer(o)
	o.player.Play()
	return o, nil
}

// Read implements io.Reader for the oto player
func (o *otoOutput) Read(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(p) / otoBytesPerFrame
	if cap(o.frames) < n {
		o.frames = make([][2]float64, n)
	}
	frames := o.frames[:n]
	if _, ok := o.src.Stream(frames); !ok {
		clear(frames)
	}

	for i, f := range frames {
		idx := i * otoBytesPerFrame
		binary.LittleEndian.PutUint32(p[idx:], math.Float32bits(float32(clampSample(f[0]*o.gain))))
		binary.LittleEndian.PutUint32(p[idx+4:], math.Float32bits(float32(clampSample(f[1]*o.gain))))
	}
	return n * otoBytesPerFrame, nil
}

func (o *otoOutput) Suspend() error {
	return o.ctx.Suspend()
}

func (o *otoOutput) Resume() error {
	return o.ctx.Resume()
}

func (o *otoOutput) Close() error {
	return o.player.Close()
}
