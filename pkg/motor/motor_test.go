package motor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChip struct {
	sync.Mutex
	levels   map[int]int
	waves    map[int]time.Duration
	claimed  map[int]bool
	released []int
	closed   bool
	failPin  int
}

func newFakeChip() *fakeChip {
	return &fakeChip{
		levels:  map[int]int{},
		waves:   map[int]time.Duration{},
		claimed: map[int]bool{},
		failPin: -1,
	}
}

func (c *fakeChip) Claim(pin int, level int) error {
	c.Lock()
	defer c.Unlock()
	if pin == c.failPin {
		return errors.New("line busy")
	}
	c.claimed[pin] = true
	c.levels[pin] = level
	return nil
}

func (c *fakeChip) Write(pin int, level int) error {
	c.Lock()
	defer c.Unlock()
	if !c.claimed[pin] {
		return errors.New("not claimed")
	}
	c.levels[pin] = level
	return nil
}

func (c *fakeChip) SquareWave(pin int, half time.Duration) error {
	c.Lock()
	defer c.Unlock()
	c.waves[pin] = half
	return nil
}

func (c *fakeChip) StopWave(pin int) error {
	c.Lock()
	defer c.Unlock()
	delete(c.waves, pin)
	return nil
}

func (c *fakeChip) Release(pin int) error {
	c.Lock()
	defer c.Unlock()
	delete(c.claimed, pin)
	c.released = append(c.released, pin)
	return nil
}

func (c *fakeChip) Close() error {
	c.Lock()
	defer c.Unlock()
	c.closed = true
	return nil
}

func testPins() Pins {
	pins := DefaultPins()
	pins.Enable = 26
	return pins
}

func assertSafe(t *testing.T, c *fakeChip, pins Pins) {
	t.Helper()
	c.Lock()
	defer c.Unlock()

	assert.Empty(t, c.waves, "no wave may keep running")
	for _, p := range pins.Motors {
		assert.Equal(t, 0, c.levels[p.Step], "step %d", p.Step)
		assert.Equal(t, 0, c.levels[p.Dir], "dir %d", p.Dir)
	}
	if pins.Enable >= 0 {
		assert.Equal(t, 1, c.levels[pins.Enable], "enable must be left disabled")
	}
	assert.Empty(t, c.claimed)
	assert.True(t, c.closed)
}

func TestAcquireInitialLevels(t *testing.T) {
	chip := newFakeChip()
	pins := testPins()

	m, err := Acquire(chip, pins, zap.NewNop())
	require.NoError(t, err)

	for _, p := range pins.Motors {
		assert.Equal(t, 1, chip.levels[p.Dir])
		assert.Equal(t, 0, chip.levels[p.Step])
	}
	assert.Equal(t, 1, chip.levels[pins.Enable])

	require.NoError(t, m.Close())
	assertSafe(t, chip, pins)
}

func TestEmitDrivesAllMotors(t *testing.T) {
	chip := newFakeChip()
	pins := testPins()
	m, err := Acquire(chip, pins, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	var during map[int]time.Duration
	var enableDuring int
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, m.Emit(440, 40*time.Millisecond, false))
	}()

	time.Sleep(20 * time.Millisecond)
	chip.Lock()
	during = map[int]time.Duration{}
	for k, v := range chip.waves {
		during[k] = v
	}
	enableDuring = chip.levels[pins.Enable]
	dirDuring := chip.levels[pins.Motors[0].Dir]
	chip.Unlock()
	<-done

	assert.Len(t, during, len(pins.Motors))
	for _, p := range pins.Motors {
		assert.Equal(t, 1136*time.Microsecond, during[p.Step])
	}
	assert.Equal(t, 0, enableDuring, "enable is active low")
	assert.Equal(t, 0, dirDuring)

	chip.Lock()
	assert.Empty(t, chip.waves)
	assert.Equal(t, 1, chip.levels[pins.Enable])
	chip.Unlock()
}

func TestEmitSilence(t *testing.T) {
	chip := newFakeChip()
	m, err := Acquire(chip, testPins(), zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	start := time.Now()
	require.NoError(t, m.Emit(0, 15*time.Millisecond, true))
	assert.True(t, time.Since(start) >= 15*time.Millisecond)
	assert.Empty(t, chip.waves)
	assert.Equal(t, 1, chip.levels[17])
}

func TestCloseOnPanic(t *testing.T) {
	chip := newFakeChip()
	pins := testPins()

	assert.Panics(t, func() {
		m, err := Acquire(chip, pins, zap.NewNop())
		require.NoError(t, err)
		defer m.Close()

		require.NoError(t, m.chip.SquareWave(pins.Motors[0].Step, time.Millisecond))
		panic("emitter exploded")
	})

	assertSafe(t, chip, pins)
}

func TestCloseIsIdempotent(t *testing.T) {
	chip := newFakeChip()
	m, err := Acquire(chip, testPins(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Close())
	released := len(chip.released)
	require.NoError(t, m.Close())
	assert.Len(t, chip.released, released)
}

func TestAcquireFailureReleasesClaimed(t *testing.T) {
	chip := newFakeChip()
	chip.failPin = 20

	_, err := Acquire(chip, testPins(), zap.NewNop())
	assert.EqualError(t, err, "line busy")
	assert.Empty(t, chip.claimed)
	assert.True(t, chip.closed)
}

func TestDelayTakesItsTime(t *testing.T) {
	start := time.Now()
	require.NoError(t, Delay{}.Emit(880, 10*time.Millisecond, true))
	assert.True(t, time.Since(start) >= 10*time.Millisecond)
}

func TestOpenSimulated(t *testing.T) {
	e, c, err := Open(Config{Simulate: true, Pins: DefaultPins()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Delay{}, e)
	assert.NoError(t, c.Close())
}

func TestChipName(t *testing.T) {
	name, err := ChipName("4")
	require.NoError(t, err)
	assert.Equal(t, "gpiochip4", name)

	_, err = ChipName("9")
	assert.Error(t, err)
	_, err = ChipName("zero")
	assert.Error(t, err)
}

func TestOpenChipMissing(t *testing.T) {
	_, err := OpenChip("gpiochip99")
	assert.ErrorIs(t, err, ErrResourceUnavailable)
}
