package proto

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

type Options struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is the part of serial.Port the display link relies on.
type Port interface {
	io.ReadWriteCloser
	Drain() error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(t time.Duration) error
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
}

// Opener opens a fresh Port on every call.
type Opener interface {
	Name() string
	Open(opts *Options) (Port, error)
}

func NewSerial(name string) *Serial {
	return &Serial{name: name}
}

type Serial struct {
	name string
}

func (s *Serial) Name() string {
	return s.name
}

func (s *Serial) Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *Serial) resolve() (string, error) {
	if strings.HasPrefix(s.name, "/") || strings.HasPrefix(strings.ToUpper(s.name), "COM") {
		return s.name, nil
	}

	ports, err := s.Ports()
	if err != nil {
		return "", errors.Wrap(err, "list serial ports")
	}

	for _, name := range ports {
		if strings.Contains(name, s.name) {
			return name, nil
		}
	}

	return "", errors.Errorf("serial port %q not found", s.name)
}

func (s *Serial) Open(opts *Options) (Port, error) {
	matched, err := s.resolve()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(matched, &serial.Mode{BaudRate: opts.BaudRate})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", matched)
	}

	if opts.ReadTimeout > 0 {
		if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, errors.Wrap(err, "set read timeout")
		}
	}

	return port, nil
}
