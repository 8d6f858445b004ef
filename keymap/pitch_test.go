package keymap

import (
	"math"
	"testing"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		name string
		midi int
		ok   bool
	}{
		{"A4", 69, true},
		{"C4", 60, true},
		{"C2", 36, true},
		{"F#3", 54, true},
		{"Bb2", 46, true},
		{"H4", 0, false},
		{"C", 0, false},
		{"Cx", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		midi, ok := ParseNote(tt.name)
		if ok != tt.ok || midi != tt.midi {
			t.Errorf("ParseNote(%q) = %d, %v; want %d, %v", tt.name, midi, ok, tt.midi, tt.ok)
		}
	}
}

func TestNoteFreq(t *testing.T) {
	if NoteFreq(69) != 440 {
		t.Errorf("Expected A4 = 440Hz, got %f", NoteFreq(69))
	}
	if math.Abs(NoteFreq(60)-261.6256) > 0.001 {
		t.Errorf("Expected C4 ~ 261.6256Hz, got %f", NoteFreq(60))
	}
	if NoteFreq(-1) != 0 || NoteFreq(128) != 0 {
		t.Error("Expected 0 for out of range notes")
	}
}

// Registry frequencies are rounded equal temperament; none should drift audibly
func TestRegistryMatchesEqualTemperament(t *testing.T) {
	for _, k := range Keys() {
		spec, _ := Lookup(k)
		cents, ok := Detune(spec)
		if !ok {
			t.Errorf("Key %q: note name %q does not parse", k, spec.Name)
			continue
		}
		if math.Abs(cents) > 0.5 {
			t.Errorf("Key %q (%s %.2fHz): %.3f cents off equal temperament", k, spec.Name, spec.Freq, cents)
		}
	}
}
