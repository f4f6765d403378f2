package link

import (
	"bytes"
	"fmt"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"paperchime/pkg/proto"
)

const maxDrainReads = 64

type Conn struct {
	port   proto.Port
	timing Timing
	logger *zap.Logger
}

func (c *Conn) Close() error {
	return c.port.Close()
}

func (c *Conn) SendFrame(frame []byte) proto.Result {
	return c.exchange(exchange{
		kind:    proto.KindFrame,
		command: proto.CmdFrame,
		confirm: proto.AckFrame,
		payload: frame,
		window:  c.timing.FrameWindow,
	})
}

func (c *Conn) SendClear() proto.Result {
	return c.exchange(exchange{
		kind:    proto.KindClear,
		command: proto.CmdClear,
		confirm: proto.AckClear,
		window:  c.timing.ClearWindow,
	})
}

func (c *Conn) SendSleep() proto.Result {
	return c.exchange(exchange{
		kind:    proto.KindSleep,
		command: proto.CmdSleep,
		confirm: proto.AckSleep,
		window:  c.timing.SleepWindow,
	})
}

type exchange struct {
	kind    proto.Kind
	command byte
	confirm byte
	payload []byte
	window  time.Duration
}

// exchange runs drain, command, optional payload and the bounded wait for
// the confirmation byte. It never retries.
func (c *Conn) exchange(ex exchange) proto.Result {
	log := c.logger.With(zap.Stringer("kind", ex.kind))
	failed := proto.Result{Kind: ex.kind, Status: proto.StatusError}

	c.drain(log)

	if err := c.write([]byte{ex.command}); err != nil {
		log.With(zap.Error(err)).Error("command write failed")
		return failed
	}

	if len(ex.payload) > 0 {
		time.Sleep(c.timing.CommandMargin)
		if err := c.write(ex.payload); err != nil {
			log.With(zap.Error(err)).Error("payload write failed")
			return failed
		}
	}

	return c.await(log, ex)
}

func (c *Conn) drain(log *zap.Logger) {
	time.Sleep(c.timing.DrainSettle)
	_ = c.port.ResetInputBuffer()
	_ = c.port.SetReadTimeout(c.timing.Poll)

	buf := make([]byte, 64)
	var dropped int
	for i := 0; i < maxDrainReads; i++ {
		n, err := c.port.Read(buf)
		if err != nil || n == 0 {
			break
		}
		dropped += n
	}

	if dropped > 0 {
		log.With(zap.Int("bytes", dropped)).Debug("drained")
	}
}

func (c *Conn) await(log *zap.Logger, ex exchange) proto.Result {
	_ = c.port.SetReadTimeout(c.timing.Poll)

	var noise bytes.Buffer
	var nak byte

	deadline := time.Now().Add(ex.window)
	buf := make([]byte, 1)

	for time.Now().Before(deadline) {
		n, err := c.port.Read(buf)
		if err != nil {
			log.With(zap.Error(err)).Debug("read failed")
			time.Sleep(c.timing.Poll)
			continue
		}
		if n == 0 {
			continue
		}

		switch b := buf[0]; b {
		case ex.confirm:
			if noise.Len() > 0 {
				log.With(zap.String("noise", noise.String())).Debug("ignored")
			}
			return proto.Result{Kind: ex.kind, Status: proto.StatusOK}
		case proto.NakTimeout, proto.NakError:
			nak = b
			noise.WriteByte(b)
		default:
			noise.WriteByte(b)
		}
	}

	log = log.With(zap.Duration("window", ex.window), zap.String("noise", noise.String()))
	if nak != 0 {
		log.With(zap.String("nak", string(nak))).Warn("controller reported failure")
		return proto.Result{Kind: ex.kind, Status: proto.StatusError}
	}

	log.Warn("confirmation timed out")
	return proto.Result{Kind: ex.kind, Status: proto.StatusTimeout}
}

func (c *Conn) write(bs []byte) error {
	start := time.Now()

	var sent int
	for sent < len(bs) {
		n, err := c.port.Write(bs[sent:])
		if err != nil {
			return errors.Wrapf(err, "write after %d bytes", sent)
		}
		if n == 0 {
			return errors.New("short write")
		}
		sent += n
	}

	if err := c.port.Drain(); err != nil {
		return errors.Wrap(err, "flush")
	}

	ext := ""
	if len(bs) <= 16 {
		ext = fmt.Sprintf("%x", bs)
	}

	c.logger.With(
		zap.String("sent", bytesize.New(float64(sent)).String()),
		zap.String("cost", time.Since(start).String()),
		zap.String("data", ext),
	).Debug("transfer")

	return nil
}
