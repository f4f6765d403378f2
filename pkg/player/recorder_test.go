package player

import (
	"sync"
	"time"
)

type Pulse struct {
	Hz            float64
	Duration      time.Duration
	DirectionHigh bool
}

// Recorder is an Emitter that only remembers what it was asked to emit.
type Recorder struct {
	sync.Mutex
	Pulses []Pulse
}

func (r *Recorder) Emit(hz float64, d time.Duration, directionHigh bool) error {
	r.Lock()
	defer r.Unlock()
	r.Pulses = append(r.Pulses, Pulse{Hz: hz, Duration: d, DirectionHigh: directionHigh})
	return nil
}

func (r *Recorder) Total() time.Duration {
	r.Lock()
	defer r.Unlock()

	var total time.Duration
	for _, p := range r.Pulses {
		total += p.Duration
	}
	return total
}
