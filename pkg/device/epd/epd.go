package epd

import (
	"context"
	"sync"
	"time"

	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"

	"paperchime/pkg/link"
	"paperchime/pkg/proto"
)

func New(l *link.Link, logger *zap.Logger) proto.Display {
	return &EPD{link: l, logger: logger}
}

// EPD drives the controller over one serial port. Every operation opens its
// own connection; the mutex keeps two of them from contending for the port.
type EPD struct {
	sync.Mutex
	link   *link.Link
	logger *zap.Logger
}

func (e *EPD) Show(ctx context.Context, frame []byte) (proto.Result, error) {
	e.lock(proto.KindFrame)
	defer e.Unlock()

	e.link.Wake(ctx)

	e.logger.With(zap.String("size", bytesize.New(float64(len(frame))).String())).Debug("sending frame")
	return e.with(ctx, proto.KindFrame, func(c *link.Conn) proto.Result {
		return c.SendFrame(frame)
	})
}

func (e *EPD) Clear(ctx context.Context) (proto.Result, error) {
	e.lock(proto.KindClear)
	defer e.Unlock()

	return e.with(ctx, proto.KindClear, (*link.Conn).SendClear)
}

func (e *EPD) Sleep(ctx context.Context) (proto.Result, error) {
	e.lock(proto.KindSleep)
	defer e.Unlock()

	return e.with(ctx, proto.KindSleep, (*link.Conn).SendSleep)
}

// lock takes the port, logging when another exchange still holds it. A
// frame in flight can keep it for the whole frame window.
func (e *EPD) lock(kind proto.Kind) {
	if e.TryLock() {
		return
	}

	log := e.logger.With(zap.Stringer("kind", kind))
	log.Info("waiting for port")

	start := time.Now()
	e.Lock()
	log.With(zap.Duration("waited", time.Since(start))).Info("port acquired")
}

func (e *EPD) with(ctx context.Context, kind proto.Kind, fn func(c *link.Conn) proto.Result) (proto.Result, error) {
	conn, err := e.link.Open(ctx)
	if err != nil {
		return proto.Result{Kind: kind, Status: proto.StatusError}, err
	}

	defer func() {
		if err := conn.Close(); err != nil {
			e.logger.With(zap.Error(err)).Info("close failed")
		}
	}()

	res := fn(conn)
	e.logger.With(zap.Stringer("result", res)).Debug("exchange")
	return res, nil
}
