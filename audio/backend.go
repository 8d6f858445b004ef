package audio

// Backend is the audio graph surface a voice allocator needs
type Backend interface {
	CurrentTime() float64
	State() ContextState
	Resume() error
	Close() error
	Destination() Node
	NewOscillator(w Waveform) *OscillatorNode
	NewBiquadFilter(t FilterType) *BiquadFilterNode
	NewGain() *GainNode
	LiveNodes() int
}

var _ Backend = (*Context)(nil)
