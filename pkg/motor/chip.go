package motor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var ErrResourceUnavailable = errors.New("gpio unavailable")

// Chip is the GPIO capability the motors need.
type Chip interface {
	Claim(pin int, level int) error
	Write(pin int, level int) error
	SquareWave(pin int, halfPeriod time.Duration) error
	StopWave(pin int) error
	Release(pin int) error
	Close() error
}

// ChipName turns "auto" or an index 0..7 into a gpiochip device name.
func ChipName(sel string) (string, error) {
	if sel == "" || sel == "auto" {
		return autoChip(), nil
	}

	idx, err := strconv.Atoi(sel)
	if err != nil || idx < 0 || idx > 7 {
		return "", errors.Errorf("invalid gpiochip %q", sel)
	}
	return fmt.Sprintf("gpiochip%d", idx), nil
}
