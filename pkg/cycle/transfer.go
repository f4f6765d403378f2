package cycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"paperchime/pkg/proto"
)

// Transfer is a frame being shown in the background.
type Transfer struct {
	done   chan struct{}
	result proto.Result
	err    error
}

// StartTransfer sends frame to dev on its own goroutine and returns at once.
func StartTransfer(ctx context.Context, dev proto.Display, frame []byte, logger *zap.Logger) *Transfer {
	t := &Transfer{done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.result = proto.Result{Kind: proto.KindFrame, Status: proto.StatusError}
				t.err = fmt.Errorf("transfer panicked: %v", r)
				logger.With(zap.Error(t.err)).Error("frame transfer failed")
			}
		}()

		start := time.Now()
		t.result, t.err = dev.Show(ctx, frame)

		log := logger.With(zap.Stringer("result", t.result), zap.Duration("took", time.Since(start)))
		switch {
		case t.err != nil:
			log.With(zap.Error(t.err)).Error("frame transfer failed")
		case !t.result.OK():
			log.With(zap.Error(t.result.Err())).Warn("frame not confirmed")
		default:
			log.Info("frame shown")
		}
	}()

	return t
}

// Wait blocks until the transfer ends or d passes, reporting whether it
// ended. Giving up does not stop the transfer.
func (t *Transfer) Wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

// Result is meaningful once Wait has returned true.
func (t *Transfer) Result() (proto.Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return proto.Result{Kind: proto.KindFrame, Status: proto.StatusTimeout}, nil
	}
}
