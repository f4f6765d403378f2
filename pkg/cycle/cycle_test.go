package cycle

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"paperchime/pkg/abort"
	"paperchime/pkg/link"
	"paperchime/pkg/player"
	"paperchime/pkg/proto"
	"paperchime/pkg/score"
)

type fakeImager struct {
	frame  []byte
	err    error
	before func()
}

func (f *fakeImager) Prepare(_ context.Context) ([]byte, string, error) {
	if f.before != nil {
		f.before()
	}
	return f.frame, "out/preview_1bit.png", f.err
}

type fakeDisplay struct {
	sync.Mutex
	calls    []string
	delay    time.Duration
	block    chan struct{}
	clearErr error
}

func (d *fakeDisplay) record(call string) {
	d.Lock()
	defer d.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDisplay) Calls() []string {
	d.Lock()
	defer d.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDisplay) Show(_ context.Context, frame []byte) (proto.Result, error) {
	d.record("show-start")
	if d.block != nil {
		<-d.block
	}
	time.Sleep(d.delay)
	d.record("show-done")
	return proto.Result{Kind: proto.KindFrame, Status: proto.StatusOK}, nil
}

func (d *fakeDisplay) Clear(_ context.Context) (proto.Result, error) {
	d.record("clear")
	if d.clearErr != nil {
		return proto.Result{Kind: proto.KindClear, Status: proto.StatusError}, d.clearErr
	}
	return proto.Result{Kind: proto.KindClear, Status: proto.StatusOK}, nil
}

func (d *fakeDisplay) Sleep(_ context.Context) (proto.Result, error) {
	d.record("sleep")
	return proto.Result{Kind: proto.KindSleep, Status: proto.StatusTimeout}, nil
}

type pulse struct {
	hz  float64
	d   time.Duration
	dir bool
}

type recorder struct {
	sync.Mutex
	Pulses []pulse
}

func (r *recorder) Emit(hz float64, d time.Duration, dir bool) error {
	r.Lock()
	defer r.Unlock()
	r.Pulses = append(r.Pulses, pulse{hz: hz, d: d, dir: dir})
	return nil
}

type closer struct {
	closed int
}

func (c *closer) Close() error {
	c.closed++
	return nil
}

type rig struct {
	cfg      Config
	imager   *fakeImager
	display  *fakeDisplay
	recorder *recorder
	emitter  player.Emitter
	closer   *closer
	acquired int
	flag     *abort.Flag
	logs     *observer.ObservedLogs
	motorErr error
}

func newRig() *rig {
	cfg := DefaultConfig()
	cfg.JoinTimeout = time.Second
	return &rig{
		cfg:      cfg,
		imager:   &fakeImager{frame: make([]byte, 2756)},
		display:  &fakeDisplay{},
		recorder: &recorder{},
		closer:   &closer{},
		flag:     &abort.Flag{},
	}
}

func (r *rig) run(t *testing.T) (Outcome, error) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	r.logs = logs

	emitter := r.emitter
	if emitter == nil {
		emitter = r.recorder
	}
	motors := func() (player.Emitter, io.Closer, error) {
		r.acquired++
		if r.motorErr != nil {
			return nil, nil, r.motorErr
		}
		return emitter, r.closer, nil
	}

	c := New(r.cfg, r.imager, r.display, motors, score.Song(), r.flag, zap.New(core))
	return c.Run(context.Background())
}

func TestCycleKeepsImage(t *testing.T) {
	r := newRig()

	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.Len(t, r.recorder.Pulses, len(score.Song()))
	assert.Equal(t, 1, r.closer.closed)
	assert.Eventually(t, func() bool {
		return len(r.display.Calls()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"show-start", "show-done"}, r.display.Calls())
	assert.Equal(t, 1, r.logs.FilterMessage("keeping image, display not cleared").Len())
}

func TestCycleClearsAndSleepsAfterJoin(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.display.delay = 100 * time.Millisecond

	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.Equal(t, []string{"show-start", "show-done", "clear", "sleep"}, r.display.Calls())
	assert.Zero(t, r.logs.FilterMessage("transfer did not finish, cleanup waits for the port").Len())
	assert.Equal(t, 1, r.logs.FilterMessage("display did not confirm").Len(), "sleep timed out")
}

func TestCycleJoinIsBounded(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.cfg.JoinTimeout = 50 * time.Millisecond
	r.display.block = make(chan struct{})
	defer close(r.display.block)

	start := time.Now()
	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.True(t, time.Since(start) < time.Second)

	assert.Equal(t, []string{"show-start", "clear", "sleep"}, r.display.Calls())
	assert.Equal(t, 1, r.logs.FilterMessage("transfer did not finish, cleanup waits for the port").Len())
}

func TestCycleAbortBeforeStart(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.flag.Set()

	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Aborted, out)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, r.display.Calls())
	assert.Zero(t, r.acquired)
}

func TestCycleAbortBeforeDispatch(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.imager.before = r.flag.Set

	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Aborted, out)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, r.display.Calls(), "frame must not be sent")
	assert.Zero(t, r.acquired)
	assert.Empty(t, r.recorder.Pulses)
}

func TestCycleAbortDuringPlayback(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.emitter = player.EmitterFunc(func(hz float64, d time.Duration, dir bool) error {
		r.flag.Set()
		return r.recorder.Emit(hz, d, dir)
	})

	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Aborted, out)

	assert.Len(t, r.recorder.Pulses, len(score.Song()), "a started song is not torn")
	assert.Equal(t, 1, r.closer.closed)
	assert.Eventually(t, func() bool {
		return len(r.display.Calls()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.NotContains(t, r.display.Calls(), "clear")
	assert.NotContains(t, r.display.Calls(), "sleep")
}

func TestCycleFrameGeometry(t *testing.T) {
	r := newRig()
	r.imager.frame = make([]byte, 100)

	out, err := r.run(t)
	assert.Equal(t, Failed, out)
	assert.ErrorIs(t, err, ErrFrameGeometry)
	assert.Empty(t, r.display.Calls())
}

func TestCyclePrepareFails(t *testing.T) {
	r := newRig()
	r.imager.err = errors.New("no camera")

	out, err := r.run(t)
	assert.Equal(t, Failed, out)
	assert.EqualError(t, err, "prepare image: no camera")
	assert.Zero(t, r.acquired)
}

func TestCycleMotorsUnavailable(t *testing.T) {
	r := newRig()
	r.motorErr = errors.New("claim gpio 17: busy")

	out, err := r.run(t)
	assert.Equal(t, Failed, out)
	assert.EqualError(t, err, "acquire motors: claim gpio 17: busy")
}

func TestCycleReleasesMotorsOnPanic(t *testing.T) {
	r := newRig()
	r.emitter = player.EmitterFunc(func(float64, time.Duration, bool) error {
		panic("driver fault")
	})

	assert.Panics(t, func() {
		_, _ = r.run(t)
	})
	assert.Equal(t, 1, r.closer.closed)
}

func TestCycleClearUnreachable(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.display.clearErr = &link.ConnectionError{Port: "ttyACM0", Attempts: 3, Err: errors.New("busy")}

	out, err := r.run(t)
	assert.Equal(t, Failed, out)

	var connErr *link.ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.NotContains(t, r.display.Calls(), "sleep")
}

func TestCycleResetsTempo(t *testing.T) {
	r := newRig()
	r.cfg.BPM = 90

	core, _ := observer.New(zap.InfoLevel)
	motors := func() (player.Emitter, io.Closer, error) { return r.recorder, r.closer, nil }
	c := New(r.cfg, r.imager, r.display, motors, score.Song(), r.flag, zap.New(core))

	for i := 0; i < 2; i++ {
		_, err := c.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 90.0, c.Tempo().BPM)
		assert.True(t, c.Tempo().DirectionHigh, "odd number of notes")
	}
	assert.Equal(t, r.recorder.Pulses[:len(score.Song())], r.recorder.Pulses[len(score.Song()):])
}

func TestTransferWait(t *testing.T) {
	dev := &fakeDisplay{block: make(chan struct{})}
	tr := StartTransfer(context.Background(), dev, []byte{1}, zap.NewNop())

	assert.False(t, tr.Wait(10*time.Millisecond))
	res, _ := tr.Result()
	assert.Equal(t, proto.StatusTimeout, res.Status)

	close(dev.block)
	assert.True(t, tr.Wait(time.Second))
	res, err := tr.Result()
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestCycleAbortDuringDisplayWait(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true
	r.cfg.DisplayWait = 200 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		r.flag.Set()
	}()

	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Aborted, out)

	assert.NotContains(t, r.display.Calls(), "clear")
	assert.NotContains(t, r.display.Calls(), "sleep")
}

func TestCycleKeepsImageWithoutDisplayWait(t *testing.T) {
	r := newRig()
	r.cfg.DisplayWait = time.Minute

	start := time.Now()
	out, err := r.run(t)
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.True(t, time.Since(start) < time.Second)
}

func TestCycleLogsJoinedTransfer(t *testing.T) {
	r := newRig()
	r.cfg.SleepDisplay = true

	_, err := r.run(t)
	require.NoError(t, err)

	joined := r.logs.FilterMessage("transfer joined").All()
	require.Len(t, joined, 1)
	assert.Equal(t, "frame-ok", joined[0].ContextMap()["result"])
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	for _, bpm := range []float64{0, -70} {
		cfg := DefaultConfig()
		cfg.BPM = bpm
		assert.Error(t, cfg.Validate(), "bpm %v", bpm)
	}

	cfg := DefaultConfig()
	cfg.Width = 0
	assert.Error(t, cfg.Validate())
}
