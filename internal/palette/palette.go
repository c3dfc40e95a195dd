// Package palette generates the ordered region color assignment. Spaced is
// the normal path: one maximally distinct color per canonical region name.
// FromImage recovers a palette from an already-colored map when no legend
// CSV exists.
package palette

import (
	"image"
	"image/color"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Spaced returns n pairwise-distinct colors with evenly spaced hue at fixed
// saturation and value. Deterministic: the same n always yields the same
// sequence.
func Spaced(n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.NRGBA, n)
	for i := 0; i < n; i++ {
		h := 360.0 * float64(i) / float64(n)
		out[i] = toNRGBA(colorful.Hsv(h, 0.65, 0.9))
	}
	return out
}

// FromImage extracts k representative colors from an image via k-means
// clustering, falling back to dominant-color extraction when clustering
// fails or returns nothing.
func FromImage(img image.Image, k int) []color.NRGBA {
	if k <= 0 {
		return nil
	}
	if p := kmeansPalette(img, k); len(p) > 0 {
		return p
	}
	cands := dominantcolor.FindWeight(img, k)
	out := make([]color.NRGBA, 0, len(cands))
	for _, c := range cands {
		out = append(out, color.NRGBA{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B, A: 255})
	}
	return out
}

func kmeansPalette(img image.Image, k int) []color.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large maps.
	const maxSamples = 12000
	step := 1
	if w*h > maxSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, maxSamples)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) < k {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}

	out := make([]color.NRGBA, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		out = append(out, toNRGBA(col))
	}
	return out
}

// Nearest returns the palette index whose color is closest to c in Lab
// space, or -1 for an empty palette.
func Nearest(p []color.NRGBA, c color.NRGBA) int {
	if len(p) == 0 {
		return -1
	}
	target := toColorful(c)
	best, bestD := 0, math.MaxFloat64
	for i, pc := range p {
		d := target.DistanceLab(toColorful(pc))
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}
