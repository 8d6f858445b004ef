package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/keysynth/core"
	"github.com/lixenwraith/keysynth/parameter"
)

// pump renders a context on a wall-clock ticker and writes s16le stereo to output
// Drives pipe backends and the null backend
type pump struct {
	src    *Context
	output io.Writer
	gain   float64

	interval time.Duration
	frames   int

	stopChan chan struct{}
	done     chan struct{}
	stopped  atomic.Bool
	errChan  chan error

	written atomic.Uint64
}

func newPump(src *Context, out io.Writer, cfg *AudioConfig) *pump {
	interval := cfg.BufferDuration
	if interval <= 0 {
		interval = parameter.AudioBufferDuration
	}
	frames := int(int64(cfg.SampleRate) * int64(interval) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}

	return &pump{
		src:      src,
		output:   out,
		gain:     cfg.MasterVolume,
		interval: interval,
		frames:   frames,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		errChan:  make(chan error, 1),
	}
}

// Start begins the render loop
func (p *pump) Start() {
	core.Go(p.loop)
}

// Stop signals the loop and waits for it to exit
func (p *pump) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopChan)
	}
	<-p.done
}

// Errors returns channel for pipe errors
func (p *pump) Errors() <-chan error {
	return p.errChan
}

// Written returns frames delivered to the output
func (p *pump) Written() uint64 {
	return p.written.Load()
}

func (p *pump) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	buf := make([][2]float64, p.frames)
	outBytes := make([]byte, p.frames*parameter.AudioBytesPerFrame)

	for {
		select {
		case <-p.stopChan:
			return

		case <-ticker.C:
			if err := p.tick(buf, outBytes); err != nil {
				select {
				case p.errChan <- err:
				default:
				}
				return
			}
		}
	}
}

// tick renders one buffer; a closed context keeps the pipe alive with silence
func (p *pump) tick(buf [][2]float64, outBytes []byte) error {
	if _, ok := p.src.Stream(buf); !ok {
		clear(buf)
	}
	floatToBytes(buf, p.gain, outBytes)

	if _, err := p.output.Write(outBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrPipeClosed, err)
	}
	p.written.Add(uint64(len(buf)))
	return nil
}

// floatToBytes converts stereo frames to interleaved int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in [][2]float64, gain float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			idx := i*parameter.AudioBytesPerFrame + ch*2
			binary.LittleEndian.PutUint16(out[idx:], uint16(toInt16(v*gain)))
		}
	}
}

func toInt16(v float64) int16 {
	// Soft limiter (tanh-style)
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}

	// Hard clip
	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}

	return int16(v * 32767)
}
