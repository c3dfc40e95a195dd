package raster

// Exact Euclidean distance transform with nearest-site propagation.
// Row pass finds the nearest false pixel within each row; the column pass
// runs the Felzenszwalb-Huttenlocher lower-envelope scan over the squared
// row distances, keeping track of which row won so the full 2D nearest
// coordinate can be recovered.

const edtInf = 1e20

// NearestOutside computes, for every pixel, the row-major index of the
// nearest pixel where the mask is false, under Euclidean distance.
// Pixels that are themselves false map to their own index.
// Returns ok=false when the mask contains no false pixel at all.
//
// When several sites are equidistant the winner is whichever parabola the
// envelope scan placed first; callers must not rely on a particular
// tie-break.
func NearestOutside(m *Mask) (nearest []int32, ok bool) {
	w, h := m.W, m.H
	if m.Count() == w*h {
		return nil, false
	}
	nearest = make([]int32, w*h)

	// Row pass: nearest false pixel in the same row, or -1.
	rowSrc := make([]int32, w*h)
	for y := 0; y < h; y++ {
		row := y * w
		last := int32(-1)
		for x := 0; x < w; x++ {
			if !m.Bits[row+x] {
				last = int32(x)
			}
			rowSrc[row+x] = last
		}
		last = -1
		for x := w - 1; x >= 0; x-- {
			if !m.Bits[row+x] {
				last = int32(x)
			}
			if last >= 0 {
				prev := rowSrc[row+x]
				if prev < 0 || last-int32(x) < int32(x)-prev {
					rowSrc[row+x] = last
				}
			}
		}
	}

	// Column pass: lower envelope of parabolas y' -> rowDist(x,y')^2 + (y-y')^2.
	f := make([]float64, h)
	v := make([]int, h)
	z := make([]float64, h+1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			src := rowSrc[y*w+x]
			if src < 0 {
				f[y] = edtInf
			} else {
				d := float64(int32(x) - src)
				f[y] = d * d
			}
		}

		k := 0
		v[0] = 0
		z[0] = -edtInf
		z[1] = edtInf
		for q := 1; q < h; q++ {
			var s float64
			for {
				p := v[k]
				s = ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*q-2*p)
				if s > z[k] {
					break
				}
				k--
			}
			k++
			v[k] = q
			z[k] = s
			z[k+1] = edtInf
		}

		k = 0
		for y := 0; y < h; y++ {
			for z[k+1] < float64(y) {
				k++
			}
			sy := v[k]
			sx := rowSrc[sy*w+x]
			if sx < 0 {
				// Unreachable when the mask has a false pixel somewhere:
				// a row with no site contributes an edtInf parabola that
				// never wins against a finite one.
				sx = int32(x)
			}
			nearest[y*w+x] = int32(sy)*int32(w) + sx
		}
	}

	return nearest, true
}
