package link

import (
	"time"
)

type Option func(l *Link)

func WithControlLines(lines ControlLines) Option {
	return func(l *Link) {
		l.lines = lines
	}
}

func WithTiming(t Timing) Option {
	return func(l *Link) {
		l.timing = t
	}
}

// Timing holds every delay and window the link uses.
type Timing struct {
	Attempts int
	Backoff  time.Duration

	LineSettle   time.Duration
	BufferSettle time.Duration
	WakeHold     time.Duration

	DrainSettle   time.Duration
	CommandMargin time.Duration
	Poll          time.Duration

	FrameWindow time.Duration
	ClearWindow time.Duration
	SleepWindow time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Attempts:      3,
		Backoff:       250 * time.Millisecond,
		LineSettle:    300 * time.Millisecond,
		BufferSettle:  200 * time.Millisecond,
		WakeHold:      200 * time.Millisecond,
		DrainSettle:   100 * time.Millisecond,
		CommandMargin: 200 * time.Millisecond,
		Poll:          10 * time.Millisecond,
		FrameWindow:   20 * time.Second,
		ClearWindow:   10 * time.Second,
		SleepWindow:   5 * time.Second,
	}
}
