package picture

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"paperchime/pkg/bitmap"
)

const (
	captureName = "capture.jpg"
	previewName = "preview_1bit.png"
	captureW    = 800
	captureH    = 600
)

var ErrNoSource = errors.New("no image source: give an image or enable capture")

// Spec is the panel geometry and orientation.
type Spec struct {
	Width    int
	Height   int
	Rotation int
	Mirror   bool
}

func New(out string, spec Spec, logger *zap.Logger, opts ...Option) *Preparer {
	p := &Preparer{
		out:    out,
		spec:   spec,
		logger: logger,
		// options
		base:     afero.NewOsFs(),
		dither:   Floyd,
		client:   resty.New().SetDoNotParseResponse(true),
		capturer: &Rpicam{logger: logger},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Preparer turns the configured source into a packed frame and keeps a
// preview of what was sent next to the capture.
type Preparer struct {
	out    string
	spec   Spec
	logger *zap.Logger
	// options
	base     afero.Fs
	dither   Dither
	source   string
	capture  bool
	simulate bool
	client   *resty.Client
	capturer Capturer
}

func (p *Preparer) Prepare(ctx context.Context) ([]byte, string, error) {
	fs, err := newFs(p.base, p.out)
	if err != nil {
		return nil, "", err
	}

	srcFs, src, err := p.resolve(ctx, fs)
	if err != nil {
		return nil, "", err
	}

	img, err := decode(srcFs, src)
	if err != nil {
		return nil, "", err
	}

	pal, err := Render(img, p.spec, p.dither)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, pal); err != nil {
		return nil, "", errors.Wrap(err, "encode preview")
	}
	if err := afero.WriteFile(fs, previewName, buf.Bytes(), 0644); err != nil {
		return nil, "", errors.Wrap(err, "write preview")
	}

	frame := bitmap.Encode(pal)
	preview, _ := fs.RealPath(previewName)

	p.logger.With(
		zap.String("source", src),
		zap.String("preview", preview),
		zap.Int("bytes", len(frame)),
		zap.String("dither", string(p.dither)),
	).Info("image prepared")

	return frame, preview, nil
}

func (p *Preparer) resolve(ctx context.Context, fs *afero.BasePathFs) (afero.Fs, string, error) {
	switch {
	case strings.HasPrefix(p.source, "http://") || strings.HasPrefix(p.source, "https://"):
		name, err := p.download(ctx, fs, p.source)
		return fs, name, err
	case p.source != "":
		return p.base, p.source, nil
	case p.capture:
		if p.simulate {
			p.logger.Info("simulation, reusing previous capture")
		} else {
			dst, _ := fs.RealPath(captureName)
			if err := p.capturer.Capture(ctx, dst, captureW, captureH); err != nil {
				return nil, "", errors.Wrap(err, "capture")
			}
		}
		return fs, captureName, nil
	}

	return nil, "", ErrNoSource
}

func decode(fs afero.Fs, name string) (image.Image, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return img, nil
}

// Render orients, fits and dithers img into the panel's two colors.
func Render(img image.Image, spec Spec, dither Dither) (*image.Paletted, error) {
	switch spec.Rotation {
	case 0:
	case 90:
		img = imaging.Rotate90(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate270(img)
	default:
		return nil, errors.Errorf("unsupported rotation %d", spec.Rotation)
	}

	if spec.Mirror {
		img = imaging.FlipH(img)
	}

	filled := imaging.Fill(img, spec.Width, spec.Height, imaging.Center, imaging.Lanczos)
	return dither.Apply(imaging.Grayscale(filled))
}
