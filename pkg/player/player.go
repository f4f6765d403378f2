package player

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"paperchime/pkg/score"
)

// Safe actuation band for the stepper coils.
const (
	MinHz         = 30.0
	MaxHz         = 3000.0
	MinHalfPeriod = 3 * time.Microsecond
)

// Tempo is the mutable playback state. One goroutine owns it per cycle.
type Tempo struct {
	BPM           float64
	Transpose     int
	DirectionHigh bool
}

func (t *Tempo) Reset(bpm float64) {
	t.BPM = bpm
	t.Transpose = 0
	t.DirectionHigh = false
}

// Emitter drives the transducers with a square wave of hz for d. A zero hz
// is silence that still lasts d.
type Emitter interface {
	Emit(hz float64, d time.Duration, directionHigh bool) error
}

type EmitterFunc func(hz float64, d time.Duration, directionHigh bool) error

func (f EmitterFunc) Emit(hz float64, d time.Duration, directionHigh bool) error {
	return f(hz, d, directionHigh)
}

// Play renders s once, in order. Every note flips the direction after it is
// emitted; rests leave it alone.
func Play(s score.Score, t *Tempo, e Emitter) error {
	for i, ev := range s {
		d := score.Duration(ev.Figure, t.BPM)

		if ev.Rest {
			if err := e.Emit(0, d, t.DirectionHigh); err != nil {
				return errors.Wrapf(err, "rest %d", i)
			}
			continue
		}

		hz := score.Hz(ev.MIDI() + t.Transpose)
		if err := e.Emit(hz, d, t.DirectionHigh); err != nil {
			return errors.Wrapf(err, "note %d", i)
		}
		t.DirectionHigh = !t.DirectionHigh
	}

	return nil
}

func Clamp(hz float64) float64 {
	return math.Max(MinHz, math.Min(MaxHz, hz))
}

// HalfPeriod is the pulse width for hz after clamping, never below
// MinHalfPeriod.
func HalfPeriod(hz float64) time.Duration {
	us := math.Round(1e6 / (2 * Clamp(hz)))
	half := time.Duration(us) * time.Microsecond
	if half < MinHalfPeriod {
		return MinHalfPeriod
	}
	return half
}
