package picture

import (
	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
)

type Option func(p *Preparer)

// WithSource sets a file path or an http(s) URL. It takes precedence over
// capture.
func WithSource(src string) Option {
	return func(p *Preparer) {
		p.source = src
	}
}

func WithCapture(enabled bool) Option {
	return func(p *Preparer) {
		p.capture = enabled
	}
}

func WithCapturer(c Capturer) Option {
	return func(p *Preparer) {
		p.capturer = c
	}
}

// WithSimulate skips the camera; a capture left by an earlier run is used.
func WithSimulate(enabled bool) Option {
	return func(p *Preparer) {
		p.simulate = enabled
	}
}

func WithDither(d Dither) Option {
	return func(p *Preparer) {
		p.dither = d
	}
}

func WithFs(fs afero.Fs) Option {
	return func(p *Preparer) {
		p.base = fs
	}
}

func WithClient(cli *resty.Client) Option {
	return func(p *Preparer) {
		p.client = cli.SetDoNotParseResponse(true)
	}
}
