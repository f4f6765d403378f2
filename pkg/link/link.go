package link

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"paperchime/pkg/proto"
)

// ControlLines selects what Open does with DTR/RTS before settling.
type ControlLines int

const (
	// LinesLow drives DTR and RTS low; some USB adapters pulse the
	// controller's reset when these lines change.
	LinesLow ControlLines = iota
	LinesUntouched
)

func ParseControlLines(s string) (ControlLines, error) {
	switch s {
	case "low", "":
		return LinesLow, nil
	case "untouched":
		return LinesUntouched, nil
	}
	return LinesLow, errors.Errorf("unknown control lines strategy %q", s)
}

type ConnectionError struct {
	Port     string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open serial %s failed after %d attempts: %v", e.Port, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func New(opener proto.Opener, baud int, logger *zap.Logger, opts ...Option) *Link {
	l := &Link{
		opener: opener,
		baud:   baud,
		logger: logger.With(zap.String("port", opener.Name())),
		// options
		lines:  LinesLow,
		timing: DefaultTiming(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

type Link struct {
	opener proto.Opener
	baud   int
	logger *zap.Logger
	// options
	lines  ControlLines
	timing Timing
}

// Open tries to open the port up to Timing.Attempts times. The returned
// connection has clean buffers and has given the firmware time to settle.
func (l *Link) Open(ctx context.Context) (*Conn, error) {
	attempts := l.timing.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		port, err := l.opener.Open(&proto.Options{BaudRate: l.baud, ReadTimeout: l.timing.Poll})
		if err == nil {
			return l.settle(port), nil
		}

		last = err
		l.logger.With(zap.Int("attempt", i+1), zap.Int("of", attempts), zap.Error(err)).Warn("serial open failed")
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, &ConnectionError{Port: l.opener.Name(), Attempts: i + 1, Err: ctx.Err()}
		case <-time.After(l.timing.Backoff):
		}
	}

	return nil, &ConnectionError{Port: l.opener.Name(), Attempts: attempts, Err: last}
}

func (l *Link) settle(port proto.Port) *Conn {
	if l.lines == LinesLow {
		if err := port.SetDTR(false); err != nil {
			l.logger.With(zap.Error(err)).Debug("set dtr failed")
		}
		if err := port.SetRTS(false); err != nil {
			l.logger.With(zap.Error(err)).Debug("set rts failed")
		}
	}

	time.Sleep(l.timing.LineSettle)
	_ = port.ResetInputBuffer()
	_ = port.ResetOutputBuffer()
	time.Sleep(l.timing.BufferSettle)

	return &Conn{port: port, timing: l.timing, logger: l.logger}
}

// Wake nudges a dozing controller with a newline. It never fails.
func (l *Link) Wake(ctx context.Context) {
	conn, err := l.Open(ctx)
	if err != nil {
		l.logger.With(zap.Error(err)).Debug("wake skipped")
		return
	}

	defer func() {
		_ = conn.Close()
	}()

	if err := conn.write([]byte{'\n'}); err != nil {
		l.logger.With(zap.Error(err)).Debug("wake write failed")
	}

	time.Sleep(l.timing.WakeHold)
}
