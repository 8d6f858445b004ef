package audio

import (
	"fmt"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// speakerOutput plays a context through the beep speaker
type speakerOutput struct {
	volume *effects.Volume
}

func openSpeaker(src *Context, cfg *AudioConfig) (Output, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(cfg.BufferDuration)); err != nil {
		return nil, fmt.Errorf("%w: speaker: %v", ErrBackendInit, err)
	}

	vol := masterVolume(src, cfg.MasterVolume)
	speaker.Play(vol)
	return &speakerOutput{volume: vol}, nil
}

// masterVolume wraps s with a linear gain expressed on beep's log2 scale
func masterVolume(s beep.Streamer, linear float64) *effects.Volume {
	v := &effects.Volume{Streamer: s, Base: 2}
	if linear <= 0 {
		v.Silent = true
	} else {
		v.Volume = math.Log2(linear)
	}
	return v
}

func (o *speakerOutput) Suspend() error {
	return speaker.Suspend()
}

func (o *speakerOutput) Resume() error {
	return speaker.Resume()
}

func (o *speakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}
