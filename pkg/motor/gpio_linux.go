//go:build linux

package motor

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/gpiod"
)

// autoChip picks the first chip that exposes any lines.
func autoChip() string {
	for _, name := range gpiod.Chips() {
		c, err := gpiod.NewChip(name)
		if err != nil {
			continue
		}
		lines := c.Lines()
		_ = c.Close()
		if lines > 0 {
			return name
		}
	}
	return "gpiochip0"
}

// OpenChip opens the named gpiochip. A missing or inaccessible device is
// reported as ErrResourceUnavailable.
func OpenChip(name string) (Chip, error) {
	c, err := gpiod.NewChip(name, gpiod.WithConsumer("paperchime"))
	if err != nil {
		return nil, errors.Wrapf(ErrResourceUnavailable, "open %s: %v", name, err)
	}

	return &GPIOChip{
		chip:  c,
		lines: make(map[int]*gpiod.Line),
		waves: make(map[int]*wave),
	}, nil
}

// GPIOChip implements Chip on a gpiochip character device. Square waves are
// toggled from a goroutine per pin.
type GPIOChip struct {
	l     sync.Mutex
	chip  *gpiod.Chip
	lines map[int]*gpiod.Line
	waves map[int]*wave
}

type wave struct {
	stop chan struct{}
	done chan struct{}
}

func (g *GPIOChip) Claim(pin int, level int) error {
	g.l.Lock()
	defer g.l.Unlock()

	if _, ok := g.lines[pin]; ok {
		return nil
	}

	line, err := g.chip.RequestLine(pin, gpiod.AsOutput(level))
	if err != nil {
		return errors.Wrapf(err, "claim gpio %d", pin)
	}

	g.lines[pin] = line
	return nil
}

func (g *GPIOChip) line(pin int) (*gpiod.Line, error) {
	g.l.Lock()
	defer g.l.Unlock()

	line, ok := g.lines[pin]
	if !ok {
		return nil, errors.Errorf("gpio %d not claimed", pin)
	}
	return line, nil
}

func (g *GPIOChip) Write(pin int, level int) error {
	line, err := g.line(pin)
	if err != nil {
		return err
	}
	return line.SetValue(level)
}

func (g *GPIOChip) SquareWave(pin int, halfPeriod time.Duration) error {
	line, err := g.line(pin)
	if err != nil {
		return err
	}

	if err := g.StopWave(pin); err != nil {
		return err
	}

	w := &wave{stop: make(chan struct{}), done: make(chan struct{})}
	g.l.Lock()
	g.waves[pin] = w
	g.l.Unlock()

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(halfPeriod)
		defer ticker.Stop()

		level := 1
		for {
			_ = line.SetValue(level)
			select {
			case <-w.stop:
				_ = line.SetValue(0)
				return
			case <-ticker.C:
				level ^= 1
			}
		}
	}()

	return nil
}

func (g *GPIOChip) StopWave(pin int) error {
	g.l.Lock()
	w, ok := g.waves[pin]
	delete(g.waves, pin)
	g.l.Unlock()

	if ok {
		close(w.stop)
		<-w.done
	}
	return nil
}

func (g *GPIOChip) Release(pin int) error {
	if err := g.StopWave(pin); err != nil {
		return err
	}

	g.l.Lock()
	line, ok := g.lines[pin]
	delete(g.lines, pin)
	g.l.Unlock()

	if !ok {
		return nil
	}
	return line.Close()
}

func (g *GPIOChip) Close() error {
	g.l.Lock()
	pins := make([]int, 0, len(g.lines))
	for pin := range g.lines {
		pins = append(pins, pin)
	}
	g.l.Unlock()

	for _, pin := range pins {
		_ = g.Release(pin)
	}

	return g.chip.Close()
}
