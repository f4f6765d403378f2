//go:build !linux

package motor

import (
	"github.com/pkg/errors"
)

func autoChip() string {
	return "gpiochip0"
}

// OpenChip always fails off Linux: gpiochip character devices only exist there.
func OpenChip(name string) (Chip, error) {
	return nil, errors.Wrapf(ErrResourceUnavailable, "open %s: not supported on this platform", name)
}
