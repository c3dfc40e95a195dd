package raster

import (
	"image"
	"image/color"
)

// Mask is a boolean grid aligned with a raster, stored row-major.
type Mask struct {
	W, H int
	Bits []bool
}

// NewMask returns an all-false mask of the given dimensions.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Bits: make([]bool, w*h)}
}

// MaskByColor returns a mask that is true wherever the image pixel
// exactly equals the given color (all four channels).
func MaskByColor(img *image.NRGBA, c color.NRGBA) *Mask {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			if img.Pix[i] == c.R && img.Pix[i+1] == c.G && img.Pix[i+2] == c.B && img.Pix[i+3] == c.A {
				m.Bits[y*w+x] = true
			}
		}
	}
	return m
}

// Union sets m to m OR other and returns m. Panics if dimensions differ.
func (m *Mask) Union(other *Mask) *Mask {
	if m.W != other.W || m.H != other.H {
		panic("raster: mask dimensions differ")
	}
	for i, b := range other.Bits {
		if b {
			m.Bits[i] = true
		}
	}
	return m
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := NewMask(m.W, m.H)
	copy(c.Bits, m.Bits)
	return c
}

// Count returns the number of true bits.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// At reports the bit at (x,y).
func (m *Mask) At(x, y int) bool {
	return m.Bits[y*m.W+x]
}
