package cycle

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"paperchime/pkg/bitmap"
	"paperchime/pkg/player"
	"paperchime/pkg/proto"
	"paperchime/pkg/score"
)

var ErrFrameGeometry = errors.New("frame length does not match display geometry")

// Imager produces the packed frame and the path of its preview.
type Imager interface {
	Prepare(ctx context.Context) (frame []byte, preview string, err error)
}

// Aborter reports whether the user asked to stop.
type Aborter interface {
	IsSet() bool
}

// Motors acquires the playback resource. The closer must leave the
// actuators safe.
type Motors func() (player.Emitter, io.Closer, error)

type Config struct {
	Width        int
	Height       int
	BPM          float64
	SleepDisplay bool
	JoinTimeout  time.Duration
	DisplayWait  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Width:       104,
		Height:      212,
		BPM:         70,
		JoinTimeout: 10 * time.Second,
	}
}

// Validate rejects settings that would make the song or the frame
// meaningless.
func (c Config) Validate() error {
	if c.BPM <= 0 {
		return errors.Errorf("bpm must be positive, got %v", c.BPM)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid geometry %dx%d", c.Width, c.Height)
	}
	if c.JoinTimeout <= 0 {
		return errors.Errorf("join timeout must be positive, got %s", c.JoinTimeout)
	}
	return nil
}

type Outcome int

const (
	Done Outcome = iota
	Aborted
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	}
	return "failed"
}

type State int

const (
	StatePrepare State = iota
	StateDispatch
	StatePlay
	StateReconcile
)

func (s State) String() string {
	return [...]string{"prepare", "dispatch", "play", "reconcile"}[s]
}

func New(cfg Config, imager Imager, display proto.Display, motors Motors, song score.Score, abort Aborter, logger *zap.Logger) *Cycle {
	return &Cycle{
		cfg:     cfg,
		imager:  imager,
		display: display,
		motors:  motors,
		song:    song,
		abort:   abort,
		logger:  logger,
	}
}

// Cycle runs the transfer and the song side by side, once.
type Cycle struct {
	cfg     Config
	imager  Imager
	display proto.Display
	motors  Motors
	song    score.Score
	abort   Aborter
	logger  *zap.Logger
	tempo   player.Tempo
}

func (c *Cycle) Tempo() player.Tempo {
	return c.tempo
}

func (c *Cycle) aborted(log *zap.Logger, at State) bool {
	if c.abort.IsSet() {
		log.With(zap.Stringer("state", at)).Info("aborted, display left untouched")
		return true
	}
	log.With(zap.Stringer("state", at)).Debug("enter")
	return false
}

// Run executes one cycle. Abort is only observed between phases, so a note
// or an exchange in progress always completes.
func (c *Cycle) Run(ctx context.Context) (Outcome, error) {
	log := c.logger.With(zap.String("cycle", xid.New().String()))

	if c.aborted(log, StatePrepare) {
		return Aborted, nil
	}
	frame, preview, err := c.imager.Prepare(ctx)
	if err != nil {
		return Failed, errors.Wrap(err, "prepare image")
	}

	expected := bitmap.PackedLen(c.cfg.Width, c.cfg.Height)
	if len(frame) != expected {
		log.With(zap.Int("expected", expected), zap.Int("actual", len(frame))).Error("frame size mismatch")
		return Failed, errors.Wrapf(ErrFrameGeometry, "%d bytes for %dx%d", len(frame), c.cfg.Width, c.cfg.Height)
	}
	log.With(zap.String("preview", preview)).Info("image ready")

	if c.aborted(log, StateDispatch) {
		return Aborted, nil
	}
	transfer := StartTransfer(ctx, c.display, frame, log)
	log.Info("frame transfer started")

	if err := c.play(log); err != nil {
		return Failed, err
	}

	if c.abort.IsSet() {
		log.Info("aborted after playback, display left untouched")
		return Aborted, nil
	}

	if !c.cfg.SleepDisplay {
		log.Info("keeping image, display not cleared")
		return Done, nil
	}

	if c.cfg.DisplayWait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(c.cfg.DisplayWait):
		}
	}
	if c.aborted(log, StateReconcile) {
		return Aborted, nil
	}

	if transfer.Wait(c.cfg.JoinTimeout) {
		res, err := transfer.Result()
		log.With(zap.Stringer("result", res), zap.NamedError("transfer", err)).Debug("transfer joined")
	} else {
		log.With(zap.Duration("waited", c.cfg.JoinTimeout)).Warn("transfer did not finish, cleanup waits for the port")
	}

	if err := c.finish(ctx, log); err != nil {
		return Failed, err
	}
	return Done, nil
}

func (c *Cycle) play(log *zap.Logger) (err error) {
	c.tempo.Reset(c.cfg.BPM)

	emitter, closer, err := c.motors()
	if err != nil {
		return errors.Wrap(err, "acquire motors")
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "release motors")
		}
	}()

	if c.aborted(log, StatePlay) {
		return nil
	}

	start := time.Now()
	log.With(zap.Int("events", len(c.song)), zap.Float64("bpm", c.tempo.BPM)).Info("song started")
	if err := player.Play(c.song, &c.tempo, emitter); err != nil {
		return errors.Wrap(err, "play song")
	}
	log.With(zap.Duration("took", time.Since(start))).Info("song finished")

	return nil
}

func (c *Cycle) finish(ctx context.Context, log *zap.Logger) error {
	res, err := c.display.Clear(ctx)
	if err != nil {
		return errors.Wrap(err, "clear display")
	}
	logResult(log, res)

	res, err = c.display.Sleep(ctx)
	if err != nil {
		return errors.Wrap(err, "sleep display")
	}
	logResult(log, res)

	return nil
}

func logResult(log *zap.Logger, res proto.Result) {
	if res.OK() {
		log.With(zap.Stringer("result", res)).Info("display confirmed")
		return
	}
	log.With(zap.Stringer("result", res), zap.Error(res.Err())).Warn("display did not confirm")
}
