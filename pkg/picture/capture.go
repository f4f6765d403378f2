package picture

import (
	"context"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

type Capturer interface {
	Capture(ctx context.Context, dst string, width, height int) error
}

// Rpicam captures a still with the Raspberry Pi camera stack.
type Rpicam struct {
	logger *zap.Logger
}

func (r *Rpicam) Capture(ctx context.Context, dst string, width, height int) error {
	cmd := exec.CommandContext(
		ctx,
		"rpicam-still",
		"--nopreview",
		"--immediate",
		"--width", strconv.Itoa(width),
		"--height", strconv.Itoa(height),
		"-o", dst,
	)
	if bs, err := cmd.CombinedOutput(); err != nil {
		r.logger.With(zap.String("exec", cmd.String()), zap.ByteString("output", bs), zap.Error(err)).Info("failed")
		return err
	}

	r.logger.With(zap.String("by", "rpicam"), zap.String("dst", dst)).Debug("captured")
	return nil
}
