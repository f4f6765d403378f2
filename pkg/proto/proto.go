package proto

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Command bytes understood by the display controller.
const (
	CmdClear = 'C'
	CmdFrame = 'S'
	CmdSleep = 'Q'
)

// Confirmation bytes sent back by the controller.
const (
	AckClear   = 'c'
	AckFrame   = 's'
	AckSleep   = 'q'
	NakTimeout = 'T'
	NakError   = 'E'
)

var (
	ErrTimeout = errors.New("no confirmation within window")
	ErrFailed  = errors.New("controller reported failure")
)

type Kind uint8

const (
	KindClear Kind = iota
	KindFrame
	KindSleep
)

func (k Kind) String() string {
	switch k {
	case KindClear:
		return "clear"
	case KindFrame:
		return "frame"
	case KindSleep:
		return "sleep"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type Status uint8

const (
	StatusOK Status = iota
	StatusTimeout
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Result is the outcome of one exchange with the controller.
type Result struct {
	Kind   Kind
	Status Status
}

func (r Result) OK() bool {
	return r.Status == StatusOK
}

func (r Result) String() string {
	return r.Kind.String() + "-" + r.Status.String()
}

// Err maps a failed result onto ErrTimeout or ErrFailed, nil when confirmed.
func (r Result) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusTimeout:
		return errors.Wrap(ErrTimeout, r.Kind.String())
	}
	return errors.Wrap(ErrFailed, r.Kind.String())
}

// Display is the e-paper controller as seen by the cycle. The returned error
// is reserved for failures to reach the controller at all; a reached
// controller that did not confirm reports it through Result.
type Display interface {
	Show(ctx context.Context, frame []byte) (Result, error)
	Clear(ctx context.Context) (Result, error)
	Sleep(ctx context.Context) (Result, error)
}
