package keymap

import (
	"math"
	"strconv"
)

// NoteFrequencies contains equal-tempered frequencies for MIDI notes 0-127
// A4 (note 69) = 440Hz
var NoteFrequencies [128]float64

func init() {
	for i := range NoteFrequencies {
		NoteFrequencies[i] = 440.0 * math.Pow(2, (float64(i)-69.0)/12.0)
	}
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote converts scientific pitch ("C4", "F#3", "Bb2") to a MIDI note number
func ParseNote(name string) (int, bool) {
	if len(name) < 2 {
		return 0, false
	}
	base, ok := semitones[name[0]]
	if !ok {
		return 0, false
	}

	rest := name[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}

	midi := (octave+1)*12 + base
	if midi < 0 || midi >= len(NoteFrequencies) {
		return 0, false
	}
	return midi, true
}

// NoteFreq returns frequency in Hz for MIDI note number
func NoteFreq(midi int) float64 {
	if midi < 0 || midi >= len(NoteFrequencies) {
		return 0
	}
	return NoteFrequencies[midi]
}

// Detune reports how far spec deviates from equal temperament, in cents
// Returns 0 and false when the note name does not parse
func Detune(spec NoteSpec) (float64, bool) {
	midi, ok := ParseNote(spec.Name)
	if !ok || spec.Freq <= 0 {
		return 0, false
	}
	return 1200 * math.Log2(spec.Freq/NoteFreq(midi)), true
}
