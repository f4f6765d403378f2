package main

import (
	"net/http"

	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paperchime/pkg/device/epd"
	"paperchime/pkg/device/remote"
	"paperchime/pkg/link"
	"paperchime/pkg/proto"
)

var port = flag.String("port", "/dev/ttyACM0", "serial port of the display controller")
var baud = flag.Int("baud", 115200, "serial baud rate")
var listen = flag.String("listen", ":9123", "listen addr")
var controlLines = flag.String("control-lines", "low", "DTR/RTS on open: low or untouched")

func main() {
	flag.Parse()

	fx.New(
		fx.Provide(
			func() (*zap.Logger, error) {
				return zap.NewProduction()
			},
			func(logger *zap.Logger) (*link.Link, *http.Server, error) {
				lines, err := link.ParseControlLines(*controlLines)
				if err != nil {
					return nil, nil, err
				}
				return link.New(proto.NewSerial(*port), *baud, logger, link.WithControlLines(lines)),
					&http.Server{Addr: *listen}, nil
			},
			epd.New,
		),
		fx.Invoke(
			remote.Proxy,
		),
	).Run()
}
