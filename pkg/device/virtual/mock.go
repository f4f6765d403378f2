package virtual

import (
	"context"

	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"

	"paperchime/pkg/proto"
)

// Mock stands in for the controller in simulation mode: nothing is sent and
// every exchange is confirmed.
func Mock(logger *zap.Logger) proto.Display {
	return &Mocker{logger}
}

type Mocker struct {
	l *zap.Logger
}

func (m *Mocker) Show(_ context.Context, frame []byte) (proto.Result, error) {
	m.l.With(zap.String("size", bytesize.New(float64(len(frame))).String())).Info("show")
	return proto.Result{Kind: proto.KindFrame, Status: proto.StatusOK}, nil
}

func (m *Mocker) Clear(_ context.Context) (proto.Result, error) {
	m.l.Info("clear")
	return proto.Result{Kind: proto.KindClear, Status: proto.StatusOK}, nil
}

func (m *Mocker) Sleep(_ context.Context) (proto.Result, error) {
	m.l.Info("sleep")
	return proto.Result{Kind: proto.KindSleep, Status: proto.StatusOK}, nil
}
