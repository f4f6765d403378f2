package bitmap

import (
	"image"
	"image/color"
)

// PackedLen is the frame size for a w x h panel: whole bytes per row.
func PackedLen(w, h int) int {
	return (w + 7) / 8 * h
}

func NewMono(r image.Rectangle) *Mono {
	stride := (r.Dx() + 7) / 8
	pixels := make([]byte, stride*r.Dy())
	// padding bits stay white
	for i := range pixels {
		pixels[i] = 0xFF
	}

	return &Mono{
		pixels: pixels,
		stride: stride,
		bounds: r,
	}
}

// Mono is a 1 bit per pixel image in the panel's wire layout: row-major,
// most significant bit first, 1 = white. It implements draw.Image.
type Mono struct {
	pixels []byte
	stride int
	bounds image.Rectangle
}

// Bounds implements the image.Image (and draw.Image) interface.
func (d *Mono) Bounds() image.Rectangle {
	return d.bounds
}

// ColorModel implements the image.Image (and draw.Image) interface.
func (d *Mono) ColorModel() color.Model {
	return MonoModel
}

// At implements the image.Image (and draw.Image) interface.
func (d *Mono) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(d.bounds)) {
		return color.Gray{}
	}
	i, mask := d.offset(x, y)
	if d.pixels[i]&mask != 0 {
		return color.Gray{Y: 0xFF}
	}
	return color.Gray{}
}

// Set implements the draw.Image interface.
func (d *Mono) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(d.bounds)) {
		return
	}
	i, mask := d.offset(x, y)
	if isWhite(c) {
		d.pixels[i] |= mask
	} else {
		d.pixels[i] &^= mask
	}
}

// Pix is the packed frame, ready for the wire.
func (d *Mono) Pix() []byte {
	return d.pixels
}

func (d *Mono) offset(x, y int) (int, byte) {
	x -= d.bounds.Min.X
	y -= d.bounds.Min.Y
	return y*d.stride + x/8, 0x80 >> uint(x%8)
}

// MonoModel thresholds a color at half luminance.
var MonoModel = color.ModelFunc(func(c color.Color) color.Color {
	if isWhite(c) {
		return color.Gray{Y: 0xFF}
	}
	return color.Gray{}
})

func isWhite(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y >= 0x80
}
