package synth

import (
	"fmt"
	"log"
	"time"

	"github.com/lixenwraith/keysynth/audio"
	"github.com/lixenwraith/keysynth/engine"
	"github.com/lixenwraith/keysynth/keymap"
	"github.com/lixenwraith/keysynth/parameter"
)

// VoiceState is the lifecycle position of a voice
type VoiceState int32

const (
	StateIdle VoiceState = iota
	StateAttacking
	StateSustaining
	StateReleasing
	StateTerminated
)

var stateNames = [...]string{"idle", "attacking", "sustaining", "releasing", "terminated"}

func (s VoiceState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("VoiceState(%d)", int32(s))
	}
	return stateNames[s]
}

// patch is the timbre and envelope of a voice class
type patch struct {
	attack  time.Duration
	release time.Duration
	peak    float64
	wave1   audio.Waveform
	wave2   audio.Waveform
	ratio   float64 // osc2 frequency relative to osc1
	cutoff  float64
	q       float64
}

func patchFor(c keymap.VoiceClass) patch {
	if c == keymap.Sustained {
		return patch{
			attack:  parameter.PadAttack,
			release: parameter.PadRelease,
			peak:    parameter.PadPeakGain,
			wave1:   audio.WaveSawtooth,
			wave2:   audio.WaveSawtooth,
			ratio:   parameter.PadDetune,
			cutoff:  parameter.PadCutoff,
			q:       parameter.PadQ,
		}
	}
	return patch{
		attack:  parameter.PluckAttack,
		release: parameter.PluckRelease,
		peak:    parameter.PluckPeakGain,
		wave1:   audio.WaveTriangle,
		wave2:   audio.WaveSine,
		ratio:   parameter.PluckHarmonic,
		cutoff:  parameter.PluckCutoff,
		q:       parameter.PluckQ,
	}
}

// Voice is one sounding or releasing note and the graph nodes it exclusively owns
// All mutation happens under the owning Manager's lock
type Voice struct {
	key   keymap.KeyID
	spec  keymap.NoteSpec
	patch patch
	ctx   audio.Backend

	osc1   *audio.OscillatorNode
	osc2   *audio.OscillatorNode
	filter *audio.BiquadFilterNode
	gain   *audio.GainNode

	state       VoiceState
	attackEnd   float64 // context seconds
	releaseFrom float64 // gain captured when release began

	teardown *engine.Task
}

func newVoice(ctx audio.Backend, key keymap.KeyID, spec keymap.NoteSpec) *Voice {
	return &Voice{
		key:   key,
		spec:  spec,
		patch: patchFor(spec.Class),
		ctx:   ctx,
	}
}

// start builds osc1,osc2 -> filter -> gain -> destination and begins the attack ramp
func (v *Voice) start() error {
	p := v.patch

	v.osc1 = v.ctx.NewOscillator(p.wave1)
	v.osc1.Frequency.SetValue(v.spec.Freq)
	v.osc2 = v.ctx.NewOscillator(p.wave2)
	v.osc2.Frequency.SetValue(v.spec.Freq * p.ratio)

	v.filter = v.ctx.NewBiquadFilter(audio.FilterLowpass)
	v.filter.Frequency.SetValue(p.cutoff)
	v.filter.Q.SetValue(p.q)

	v.gain = v.ctx.NewGain()

	links := [][2]audio.Node{
		{v.osc1, v.filter},
		{v.osc2, v.filter},
		{v.filter, v.gain},
		{v.gain, v.ctx.Destination()},
	}
	for _, l := range links {
		if err := l[0].Connect(l[1]); err != nil {
			v.terminate()
			return fmt.Errorf("connect: %w", err)
		}
	}

	now := v.ctx.CurrentTime()
	v.attackEnd = now + p.attack.Seconds()
	v.gain.Gain.SetValueAtTime(0, now)
	v.gain.Gain.LinearRampToValueAtTime(p.peak, v.attackEnd)

	for _, osc := range []*audio.OscillatorNode{v.osc1, v.osc2} {
		if err := osc.Start(now); err != nil {
			v.terminate()
			return fmt.Errorf("start oscillator: %w", err)
		}
	}

	v.state = StateAttacking
	return nil
}

// release ramps from the instantaneous gain to zero
// Returns the release duration, false if the voice was not attacking or sustaining
func (v *Voice) release() (time.Duration, bool) {
	if v.state != StateAttacking && v.state != StateSustaining {
		return 0, false
	}

	now := v.ctx.CurrentTime()
	v.releaseFrom = v.gain.Gain.CancelAndHoldAtTime(now)
	v.gain.Gain.LinearRampToValueAtTime(0, now+v.patch.release.Seconds())
	v.state = StateReleasing
	return v.patch.release, true
}

// terminate stops and detaches every node; safe to call in any state, any number of times
func (v *Voice) terminate() {
	if v.state == StateTerminated {
		return
	}
	v.state = StateTerminated

	if v.teardown != nil {
		v.teardown.Cancel()
	}

	now := v.ctx.CurrentTime()
	for _, osc := range []*audio.OscillatorNode{v.osc1, v.osc2} {
		if osc != nil {
			v.discard("stop", osc.Stop(now))
		}
	}

	var nodes []audio.Node
	if v.osc1 != nil {
		nodes = append(nodes, v.osc1)
	}
	if v.osc2 != nil {
		nodes = append(nodes, v.osc2)
	}
	if v.filter != nil {
		nodes = append(nodes, v.filter)
	}
	if v.gain != nil {
		nodes = append(nodes, v.gain)
	}
	for _, n := range nodes {
		v.discard("disconnect", n.Disconnect())
		v.discard("release", n.Release())
	}
}

// discard logs teardown races that are expected under forced shutdown
func (v *Voice) discard(op string, err error) {
	if err != nil {
		log.Printf("synth: voice %s %s: %v", v.key, op, err)
	}
}

// State derives Sustaining once the attack ramp has completed
func (v *Voice) State() VoiceState {
	if v.state == StateAttacking && v.ctx.CurrentTime() >= v.attackEnd {
		return StateSustaining
	}
	return v.state
}

// Key returns the key that triggered the voice
func (v *Voice) Key() keymap.KeyID { return v.key }

// Class returns the voice class fixed at creation
func (v *Voice) Class() keymap.VoiceClass { return v.spec.Class }
