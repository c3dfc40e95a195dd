package raster

import (
	"image"
	"image/color"
)

// BorderMap recolors every pixel of the target region with the color of the
// geometrically nearest pixel belonging to some other region, where
// "other region" excludes the target itself, the background color and the
// ignore color. All pixels outside the target region come out fully
// transparent.
//
// Two conditions produce an all-transparent result rather than an error:
// a target color absent from the image, and an image with no valid
// propagation source (nothing but target, background and ignore pixels).
func BorderMap(img *image.NRGBA, target, background, ignore color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	targetMask := MaskByColor(img, target)
	if targetMask.Count() == 0 {
		return out
	}

	// Pixels that may not act as propagation sources. The distance
	// transform finds, for each of them, the nearest pixel outside the
	// mask, i.e. the nearest pixel of some other region.
	barrier := targetMask.Clone().
		Union(MaskByColor(img, background)).
		Union(MaskByColor(img, ignore))

	nearest, ok := NearestOutside(barrier)
	if !ok {
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !targetMask.Bits[idx] {
				continue
			}
			src := int(nearest[idx])
			sx, sy := src%w, src/w
			si := img.PixOffset(b.Min.X+sx, b.Min.Y+sy)
			di := out.PixOffset(x, y)
			copy(out.Pix[di:di+4], img.Pix[si:si+4])
		}
	}

	return out
}
