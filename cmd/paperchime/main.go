package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paperchime/pkg/abort"
	"paperchime/pkg/cycle"
	"paperchime/pkg/device/epd"
	"paperchime/pkg/device/remote"
	"paperchime/pkg/device/virtual"
	"paperchime/pkg/link"
	"paperchime/pkg/motor"
	"paperchime/pkg/picture"
	"paperchime/pkg/player"
	"paperchime/pkg/proto"
	"paperchime/pkg/score"
)

var port = flag.String("port", "/dev/ttyACM0", "serial port of the display controller, or remote addr")
var baud = flag.Int("baud", 115200, "serial baud rate")
var imagePath = flag.String("image", "", "image file or url to show")
var capture = flag.Bool("capture", false, "take a photo with rpicam-still")
var dither = flag.String("dither", "floyd", "dithering: floyd, bayer or none")
var rotation = flag.Int("rotation", 0, "rotate the image by 0, 90, 180 or 270")
var mirror = flag.Bool("mirror", false, "mirror the image horizontally")
var width = flag.Int("width", 104, "panel width")
var height = flag.Int("height", 212, "panel height")
var bpm = flag.Float64("bpm", 70, "song tempo")
var sleep = flag.Bool("sleep", false, "clear and sleep the display after the song")
var out = flag.String("out", "out", "working directory for captures and previews")
var simulate = flag.Bool("simulate", false, "run without display, camera or motors")
var gpiochip = flag.String("gpiochip", "auto", "gpiochip index or auto")
var pinEnable = flag.Int("pin-enable", -1, "shared active-low enable pin, -1 if unwired")
var displayWait = flag.Duration("display-wait", 0, "extra wait after the song before touching the display")
var controlLines = flag.String("control-lines", "low", "DTR/RTS on open: low or untouched")
var debug = flag.Bool("debug", false, "set debug")

const (
	exitFatal   = 1
	exitAborted = 2
)

func main() {
	flag.Parse()

	logger, err := lo.Ternary(*debug, zap.NewDevelopment, zap.NewProduction)()
	if err != nil {
		log.Fatal(err)
	}

	interrupted := &abort.Flag{}
	stop := abort.Notify(interrupted, logger)

	code := run(interrupted, logger)

	stop()
	_ = logger.Sync()
	os.Exit(code)
}

func run(interrupted *abort.Flag, logger *zap.Logger) int {
	var c *cycle.Cycle

	app := fx.New(
		fx.NopLogger,
		fx.Supply(logger, interrupted),
		fx.Provide(
			config,
			display,
			imager,
			motors,
			func(f *abort.Flag) cycle.Aborter { return f },
			score.Song,
			cycle.New,
		),
		fx.Populate(&c),
	)
	if err := app.Start(context.Background()); err != nil {
		logger.With(zap.Error(err)).Error("setup failed")
		return exitFatal
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	start := time.Now()
	outcome, err := c.Run(context.Background())
	logger = logger.With(zap.Stringer("outcome", outcome), zap.Duration("took", time.Since(start)))

	switch {
	case err != nil:
		logger.With(zap.Error(err)).Error("cycle failed")
		return exitFatal
	case outcome == cycle.Aborted:
		logger.Warn("cycle aborted")
		return exitAborted
	}

	logger.Info("cycle done")
	return 0
}

func config() (cycle.Config, error) {
	cfg := cycle.DefaultConfig()
	cfg.Width = *width
	cfg.Height = *height
	cfg.BPM = *bpm
	cfg.SleepDisplay = *sleep
	cfg.DisplayWait = *displayWait
	return cfg, cfg.Validate()
}

func display(logger *zap.Logger, lc fx.Lifecycle) (proto.Display, error) {
	if *simulate {
		return virtual.Mock(logger), nil
	}

	if strings.Contains(*port, ":") {
		dev, err := remote.New(*port)
		if err != nil {
			return nil, err
		}
		if c, ok := dev.(io.Closer); ok {
			lc.Append(fx.Hook{OnStop: func(context.Context) error { return c.Close() }})
		}
		return dev, nil
	}

	lines, err := link.ParseControlLines(*controlLines)
	if err != nil {
		return nil, err
	}

	l := link.New(proto.NewSerial(*port), *baud, logger, link.WithControlLines(lines))
	return epd.New(l, logger), nil
}

func imager(logger *zap.Logger) (cycle.Imager, error) {
	d, err := picture.ParseDither(*dither)
	if err != nil {
		return nil, err
	}

	spec := picture.Spec{Width: *width, Height: *height, Rotation: *rotation, Mirror: *mirror}
	return picture.New(*out, spec, logger,
		picture.WithSource(*imagePath),
		picture.WithCapture(*capture),
		picture.WithSimulate(*simulate),
		picture.WithDither(d),
	), nil
}

func motors(logger *zap.Logger) cycle.Motors {
	pins := motor.DefaultPins()
	pins.Enable = *pinEnable

	cfg := motor.Config{Chip: *gpiochip, Pins: pins, Simulate: *simulate}
	return func() (player.Emitter, io.Closer, error) {
		return motor.Open(cfg, logger)
	}
}
