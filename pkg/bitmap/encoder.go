package bitmap

import (
	"image"
)

// Encode packs src for the panel. src is expected to be already dithered;
// anything else is thresholded.
func Encode(src image.Image) []byte {
	b := src.Bounds()
	d := NewMono(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d.Set(x, y, src.At(x, y))
		}
	}

	return d.pixels
}
