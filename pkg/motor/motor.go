package motor

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"paperchime/pkg/player"
)

// Pair is the BCM numbering of one driver's DIR and STEP inputs.
type Pair struct {
	Dir  int
	Step int
}

type Pins struct {
	Motors []Pair
	// Enable is the shared, active-low ENABLE input; negative when unwired.
	Enable int
}

func DefaultPins() Pins {
	return Pins{
		Motors: []Pair{
			{Dir: 17, Step: 4},
			{Dir: 24, Step: 23},
			{Dir: 20, Step: 16},
			{Dir: 8, Step: 25},
			{Dir: 7, Step: 21},
		},
		Enable: -1,
	}
}

const dirSetup = time.Millisecond

// Acquire claims every pin on chip. The returned Motors owns chip and must
// be closed; on failure everything already claimed is released.
func Acquire(chip Chip, pins Pins, logger *zap.Logger) (*Motors, error) {
	m := &Motors{chip: chip, pins: pins, logger: logger}

	if pins.Enable >= 0 {
		if err := m.claim(pins.Enable, 1); err != nil {
			return nil, multierr.Append(err, m.Close())
		}
	}

	for _, p := range pins.Motors {
		if err := m.claim(p.Step, 0); err != nil {
			return nil, multierr.Append(err, m.Close())
		}
		if err := m.claim(p.Dir, 1); err != nil {
			return nil, multierr.Append(err, m.Close())
		}
	}

	logger.With(zap.Int("motors", len(pins.Motors)), zap.Int("enable", pins.Enable)).Info("motors ready")
	return m, nil
}

// Motors is the scoped owner of the motor pins. Close leaves every coil
// de-energised whatever happened before it.
type Motors struct {
	chip    Chip
	pins    Pins
	logger  *zap.Logger
	claimed []int
	closed  bool
}

func (m *Motors) claim(pin, level int) error {
	if err := m.chip.Claim(pin, level); err != nil {
		return err
	}
	m.claimed = append(m.claimed, pin)
	return nil
}

// Emit implements player.Emitter.
func (m *Motors) Emit(hz float64, d time.Duration, directionHigh bool) error {
	if d <= 0 {
		return m.toneOff()
	}

	level := 0
	if directionHigh {
		level = 1
	}
	for _, p := range m.pins.Motors {
		if err := m.chip.Write(p.Dir, level); err != nil {
			return err
		}
	}

	if err := m.enable(true); err != nil {
		return err
	}
	time.Sleep(dirSetup)

	if hz > 0 {
		if err := m.toneOn(hz); err != nil {
			return multierr.Append(err, m.toneOff())
		}
	}
	time.Sleep(d)

	return multierr.Append(m.toneOff(), m.enable(false))
}

func (m *Motors) enable(on bool) error {
	if m.pins.Enable < 0 {
		return nil
	}
	// active low
	level := 1
	if on {
		level = 0
	}
	return m.chip.Write(m.pins.Enable, level)
}

func (m *Motors) toneOn(hz float64) error {
	half := player.HalfPeriod(hz)
	if err := m.toneOff(); err != nil {
		return err
	}

	for _, p := range m.pins.Motors {
		if err := m.chip.SquareWave(p.Step, half); err != nil {
			return errors.Wrapf(err, "wave on gpio %d", p.Step)
		}
	}
	return nil
}

func (m *Motors) toneOff() error {
	var err error
	for _, p := range m.pins.Motors {
		err = multierr.Append(err, m.chip.StopWave(p.Step))
		err = multierr.Append(err, m.chip.Write(p.Step, 0))
	}
	return err
}

// Close stops every wave, drives STEP and DIR low and ENABLE high, then
// releases the pins and the chip. Safe to call more than once.
func (m *Motors) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	for _, p := range m.pins.Motors {
		if !m.has(p.Step) {
			continue
		}
		err = multierr.Append(err, m.chip.StopWave(p.Step))
		err = multierr.Append(err, m.chip.Write(p.Step, 0))
		if m.has(p.Dir) {
			err = multierr.Append(err, m.chip.Write(p.Dir, 0))
		}
	}
	if m.pins.Enable >= 0 && m.has(m.pins.Enable) {
		err = multierr.Append(err, m.chip.Write(m.pins.Enable, 1))
	}

	for _, pin := range m.claimed {
		err = multierr.Append(err, m.chip.Release(pin))
	}
	err = multierr.Append(err, m.chip.Close())

	if err != nil {
		m.logger.With(zap.Error(err)).Warn("motors released with errors")
	} else {
		m.logger.Info("motors released")
	}
	return err
}

func (m *Motors) has(pin int) bool {
	for _, p := range m.claimed {
		if p == pin {
			return true
		}
	}
	return false
}

// Delay stands in for the motors when there is no GPIO: every event only
// takes its time.
type Delay struct{}

func (Delay) Emit(_ float64, d time.Duration, _ bool) error {
	if d > 0 {
		time.Sleep(d)
	}
	return nil
}

type Config struct {
	Chip     string
	Pins     Pins
	Simulate bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the emitter for this run and the closer that releases it.
// A missing GPIO device degrades to Delay; any other acquisition failure
// is returned.
func Open(cfg Config, logger *zap.Logger) (player.Emitter, io.Closer, error) {
	if cfg.Simulate {
		logger.Info("simulation, motors idle")
		return Delay{}, nopCloser{}, nil
	}

	name, err := ChipName(cfg.Chip)
	if err != nil {
		return nil, nil, err
	}

	chip, err := OpenChip(name)
	if err != nil {
		if errors.Is(err, ErrResourceUnavailable) {
			logger.With(zap.Error(err)).Warn("gpio unavailable, playing silently")
			return Delay{}, nopCloser{}, nil
		}
		return nil, nil, err
	}

	logger = logger.With(zap.String("chip", name))
	m, err := Acquire(chip, cfg.Pins, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "acquire motors")
	}
	return m, m, nil
}
