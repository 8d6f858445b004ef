// Package keymap maps key identifiers to note frequencies and voice classes
package keymap

import (
	"sort"
	"unicode"
)

// KeyID is a case-normalized key symbol
type KeyID rune

// Normalize folds a raw input rune into a KeyID
func Normalize(r rune) KeyID {
	return KeyID(unicode.ToLower(r))
}

func (k KeyID) String() string {
	return string(rune(k))
}

// VoiceClass selects the timbre and envelope of a note
type VoiceClass uint8

const (
	Pluck VoiceClass = iota
	Sustained
)

func (c VoiceClass) String() string {
	switch c {
	case Pluck:
		return "pluck"
	case Sustained:
		return "pad"
	default:
		return "unknown"
	}
}

// NoteSpec is the immutable registry entry for a playable key
type NoteSpec struct {
	Freq  float64 // Hz
	Class VoiceClass
	Name  string // Scientific pitch, e.g. "C4"
}

type entry struct {
	key  KeyID
	freq float64
	name string
}

// layout lists the playable keys row by row as they appear on a QWERTY keyboard
var layout = [4][10]entry{
	{
		{'1', 261.63, "C4"}, {'2', 293.66, "D4"}, {'3', 329.63, "E4"}, {'4', 392.00, "G4"}, {'5', 440.00, "A4"},
		{'6', 523.25, "C5"}, {'7', 587.33, "D5"}, {'8', 659.25, "E5"}, {'9', 783.99, "G5"}, {'0', 880.00, "A5"},
	},
	{
		{'q', 261.63, "C4"}, {'w', 293.66, "D4"}, {'e', 329.63, "E4"}, {'r', 349.23, "F4"}, {'t', 392.00, "G4"},
		{'y', 440.00, "A4"}, {'u', 493.88, "B4"}, {'i', 523.25, "C5"}, {'o', 587.33, "D5"}, {'p', 659.25, "E5"},
	},
	{
		{'a', 130.81, "C3"}, {'s', 146.83, "D3"}, {'d', 164.81, "E3"}, {'f', 174.61, "F3"}, {'g', 196.00, "G3"},
		{'h', 220.00, "A3"}, {'j', 246.94, "B3"}, {'k', 261.63, "C4"}, {'l', 293.66, "D4"}, {';', 329.63, "E4"},
	},
	{
		{'z', 65.41, "C2"}, {'x', 73.42, "D2"}, {'c', 82.41, "E2"}, {'v', 87.31, "F2"}, {'b', 98.00, "G2"},
		{'n', 110.00, "A2"}, {'m', 123.47, "B2"}, {',', 130.81, "C3"}, {'.', 146.83, "D3"}, {'/', 164.81, "E3"},
	},
}

// sustained holds the digit row and the four pad letters
var sustained = map[KeyID]struct{}{
	'1': {}, '2': {}, '3': {}, '4': {}, '5': {}, '6': {}, '7': {}, '8': {}, '9': {}, '0': {},
	'u': {}, 'i': {}, 'o': {}, 'p': {},
}

var registry map[KeyID]NoteSpec

func init() {
	registry = make(map[KeyID]NoteSpec, len(layout)*len(layout[0]))
	for _, row := range layout {
		for _, e := range row {
			registry[e.key] = NoteSpec{
				Freq:  e.freq,
				Class: ClassOf(e.key),
				Name:  e.name,
			}
		}
	}
}

// Lookup returns the note for key, false for unmapped keys
func Lookup(key KeyID) (NoteSpec, bool) {
	spec, ok := registry[Normalize(rune(key))]
	return spec, ok
}

// ClassOf reports the voice class from sustained-set membership alone
// Unmapped keys report Pluck
func ClassOf(key KeyID) VoiceClass {
	if IsSustained(key) {
		return Sustained
	}
	return Pluck
}

// IsSustained reports whether key belongs to the sustained set
func IsSustained(key KeyID) bool {
	_, ok := sustained[Normalize(rune(key))]
	return ok
}

// Rows returns the playable keys grouped by keyboard row
func Rows() [][]KeyID {
	rows := make([][]KeyID, len(layout))
	for i, row := range layout {
		rows[i] = make([]KeyID, len(row))
		for j, e := range row {
			rows[i][j] = e.key
		}
	}
	return rows
}

// Keys returns every mapped key in ascending order
func Keys() []KeyID {
	keys := make([]KeyID, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of mapped keys
func Len() int {
	return len(registry)
}
