// Package abort carries the cooperative cancellation flag. The interrupt
// handler is its only writer; everything else polls it between steps.
package abort

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type Flag struct {
	v atomic.Bool
}

func (f *Flag) Set() {
	f.v.Store(true)
}

func (f *Flag) IsSet() bool {
	return f.v.Load()
}

// Notify sets f on SIGINT/SIGTERM (or the given signals) until stop is called.
func Notify(f *Flag, logger *zap.Logger, sig ...os.Signal) (stop func()) {
	if len(sig) == 0 {
		sig = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signals, sig...)

	go func() {
		for {
			select {
			case s := <-signals:
				f.Set()
				logger.With(zap.String("signal", s.String())).Warn("interrupt received, finishing current step")
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}
