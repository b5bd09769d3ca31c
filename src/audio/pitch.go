package audio

import (
	"fmt"
	"math"
	"strconv"
)

// ----- Pitch ----- //

const (
	bendRangeSemitones = 2.0
	minFrequency       = 20.0
	maxFrequency       = 22050.0
)

// noteToFreq converts a MIDI note number to Hz, equal temperament around
// A4 = 440Hz.
func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

var pitchLetters = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// parseNote reads names of the form {PitchLetter}[#]{Octave}, e.g. "C4" or
// "F#3", into a MIDI note number with C4 = 60.
func parseNote(name string) (int, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}
	letter := name[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	semitone, ok := pitchLetters[letter]
	if !ok {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}
	rest := name[1:]
	if rest[0] == '#' {
		semitone++
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid note name: %q", name)
	}
	note := (octave+1)*12 + semitone
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("note out of range: %q", name)
	}
	return note, nil
}

// noteName renders a MIDI note number back to its sharp-spelled name.
func noteName(note int) string {
	names := [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	return fmt.Sprintf("%s%d", names[((note%12)+12)%12], note/12-1)
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// sanitize substitutes def for NaN or infinite input, then clamps. Knob
// values pass through here before any arithmetic so a poisoned control
// snapshot can never reach a node parameter.
func sanitize(v, def, low, high float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = def
	}
	return clamp(v, low, high)
}

// computeFrequency turns a note plus the control inputs into a final
// frequency in Hz. Pure, never fails: all inputs are clamped or substituted
// before use and the result is bounded to the audible range.
//
//	note ──► noteToFreq ──► ×2^(masterTune/12) ─┐
//	pitch wheel ──► bend semitones ─────────────┼──► ×2^(total/12) ──► clamp
//	detune knob + fixed cents ──────────────────┘
func computeFrequency(note int, masterTuneSemitones, detuneSemitones, pitchWheelPosition, fixedDetuneCents float64) float64 {
	tune := sanitize(masterTuneSemitones, 0, -12, 12)
	detune := sanitize(detuneSemitones, 0, -12, 12)
	wheel := sanitize(pitchWheelPosition, 50, 0, 100)
	cents := sanitize(fixedDetuneCents, 0, -100, 100)

	base := noteToFreq(note) * math.Pow(2, tune/12)
	bend := (wheel - 50) / 50 * bendRangeSemitones
	total := detune + bend + cents/100
	return clamp(base*math.Pow(2, total/12), minFrequency, maxFrequency)
}
