package raster

import (
	"image"
	"image/color"
)

// Validate counts pixels whose color is not in the allowed set.
// A valid categorical raster contains only background, ignore and palette
// colors; anything else is a silent mismatch that never matches any region
// mask, so callers should surface the counts rather than fail the run.
func Validate(img *image.NRGBA, allowed []color.NRGBA) map[color.NRGBA]int {
	ok := make(map[color.NRGBA]bool, len(allowed))
	for _, c := range allowed {
		ok[c] = true
	}

	strays := make(map[color.NRGBA]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			c := color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
			if !ok[c] {
				strays[c]++
			}
		}
	}
	return strays
}
