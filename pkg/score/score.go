// Package score describes the fixed melody as a sequence of note and rest
// events, plus the pitch and duration arithmetic used to render it.
package score

import (
	"math"
	"time"
)

type PitchClass int

const (
	C PitchClass = 0
	D PitchClass = 2
	E PitchClass = 4
	F PitchClass = 5
	G PitchClass = 7
	A PitchClass = 9
	B PitchClass = 11
)

type Alteration int

const (
	Natural Alteration = 0
	Sharp   Alteration = 1
	Flat    Alteration = -1
)

type Figure int

const (
	Whole Figure = iota
	Half
	Quarter
	Eighth
	Sixteenth
	ThirtySecond
	SixtyFourth
	DottedWhole
	DottedHalf
	DottedQuarter
	DottedEighth
	TripletQuarter
	TripletEighth
	TripletSixteenth
)

// factors are expressed in quarter notes.
var factors = map[Figure]float64{
	Whole:            4,
	Half:             2,
	Quarter:          1,
	Eighth:           0.5,
	Sixteenth:        0.25,
	ThirtySecond:     0.125,
	SixtyFourth:      0.0625,
	DottedWhole:      6,
	DottedHalf:       3,
	DottedQuarter:    1.5,
	DottedEighth:     0.75,
	TripletQuarter:   2.0 / 3,
	TripletEighth:    1.0 / 3,
	TripletSixteenth: 0.5 / 3,
}

// Figures lists every known figure.
func Figures() []Figure {
	fs := make([]Figure, 0, len(factors))
	for f := Whole; f <= TripletSixteenth; f++ {
		fs = append(fs, f)
	}
	return fs
}

// Millis is the exact length of f in milliseconds at bpm. Unknown figures
// last a quarter note.
func Millis(f Figure, bpm float64) float64 {
	factor, ok := factors[f]
	if !ok {
		factor = 1
	}
	return 60000.0 / bpm * factor
}

// Duration is Millis truncated to whole milliseconds.
func Duration(f Figure, bpm float64) time.Duration {
	return time.Duration(int64(Millis(f, bpm))) * time.Millisecond
}

func MIDI(p PitchClass, octave int, alt Alteration) int {
	return 12*(octave+1) + int(p) + int(alt)
}

// Hz maps a MIDI note number to equal-tempered frequency, A4 (69) = 440 Hz.
func Hz(midi int) float64 {
	return 440.0 * math.Pow(2, float64(midi-69)/12.0)
}

type Event struct {
	Rest       bool
	Pitch      PitchClass
	Octave     int
	Alteration Alteration
	Figure     Figure
}

func Note(p PitchClass, octave int, f Figure, alt ...Alteration) Event {
	e := Event{Pitch: p, Octave: octave, Figure: f}
	if len(alt) > 0 {
		e.Alteration = alt[0]
	}
	return e
}

func Rest(f Figure) Event {
	return Event{Rest: true, Figure: f}
}

func (e Event) MIDI() int {
	return MIDI(e.Pitch, e.Octave, e.Alteration)
}

type Score []Event

// Length is the playing time of s at bpm.
func (s Score) Length(bpm float64) time.Duration {
	var total time.Duration
	for _, e := range s {
		total += Duration(e.Figure, bpm)
	}
	return total
}
