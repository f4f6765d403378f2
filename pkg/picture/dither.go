package picture

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

type Dither string

const (
	Floyd Dither = "floyd"
	Bayer Dither = "bayer"
	None  Dither = "none"
)

func ParseDither(s string) (Dither, error) {
	switch d := Dither(s); d {
	case Floyd, Bayer, None:
		return d, nil
	}
	return "", errors.Errorf("unknown dither %q", s)
}

var palette = color.Palette{color.Black, color.White}

var bayer4 = [4][4]float64{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// Apply reduces img to black and white.
func (d Dither) Apply(img image.Image) (*image.Paletted, error) {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)

	switch d {
	case Floyd:
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	case None:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	case Bayer:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				threshold := (bayer4[y%4][x%4] + 0.5) / 16 * 255
				if float64(g.Y) > threshold {
					dst.SetColorIndex(x, y, 1)
				}
			}
		}
	default:
		return nil, errors.Errorf("unknown dither %q", string(d))
	}

	return dst, nil
}
