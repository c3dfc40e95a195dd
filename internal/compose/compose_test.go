package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighbour-map-renderer/internal/legend"
	"neighbour-map-renderer/internal/raster"
)

var (
	seaSrc = color.NRGBA{R: 5, G: 5, B: 90, A: 255}
	aSrc   = color.NRGBA{R: 100, A: 255}
	bSrc   = color.NRGBA{R: 101, A: 255}
	cSrc   = color.NRGBA{R: 102, A: 255} // alias of B
	grey   = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

	pal = []color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
	}
)

func testLegend() *legend.Legend {
	return legend.New([]legend.Record{
		{Name: "Sea", Color: seaSrc},
		{Name: "Alba", Color: aSrc},
		{Name: "Borduria", Color: bSrc},
		{Name: "Borduria Isle", Color: cSrc},
	}, "Sea", map[string]string{"Borduria Isle": "Borduria"})
}

// 5x3 source map: Alba on the left, Borduria on the right, the alias
// colored cell merging into Borduria, sea elsewhere.
func testMap() *image.NRGBA {
	cells := []string{
		"AASBB",
		"AASBC",
		"SSSSS",
	}
	key := map[byte]color.NRGBA{'A': aSrc, 'B': bSrc, 'C': cSrc, 'S': seaSrc}
	img := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for y, row := range cells {
		for x := 0; x < 5; x++ {
			img.SetNRGBA(x, y, key[row[x]])
		}
	}
	return img
}

func newTestMapper(t *testing.T) *Mapper {
	m, err := NewMapper(testMap(), testLegend(), pal, grey)
	require.NoError(t, err)
	return m
}

func TestNewMapper_PaletteSizeMismatch(t *testing.T) {
	_, err := NewMapper(testMap(), testLegend(), pal[:1], grey)
	assert.Error(t, err)
}

func TestRecolor(t *testing.T) {
	m := newTestMapper(t)

	assert.Equal(t, pal[0], m.Map.NRGBAAt(0, 0))
	assert.Equal(t, pal[1], m.Map.NRGBAAt(3, 0))
	assert.Equal(t, pal[1], m.Map.NRGBAAt(4, 1), "alias color merges into canonical region")
	assert.Equal(t, seaSrc, m.Map.NRGBAAt(2, 0), "background keeps its legend color")
}

func TestBorderMap_ByName(t *testing.T) {
	m := newTestMapper(t)

	out, err := m.BorderMap("Alba")
	require.NoError(t, err)
	assert.Equal(t, pal[1], out.NRGBAAt(0, 0), "Alba pixels take Borduria's color")
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(3, 0))

	out, err = m.BorderMap("Borduria Isle")
	require.NoError(t, err)
	assert.Equal(t, pal[0], out.NRGBAAt(4, 1), "alias renders its canonical region")

	_, err = m.BorderMap("Atlantis")
	assert.ErrorIs(t, err, legend.ErrUnknownRegion)
}

func TestAllBorders(t *testing.T) {
	m := newTestMapper(t)

	out, err := m.AllBorders()
	require.NoError(t, err)

	// Every region's footprint now wears the other region's color.
	assert.Equal(t, pal[1], out.NRGBAAt(0, 0))
	assert.Equal(t, pal[1], out.NRGBAAt(1, 1))
	assert.Equal(t, pal[0], out.NRGBAAt(3, 0))
	assert.Equal(t, pal[0], out.NRGBAAt(4, 1))
	assert.Equal(t, seaSrc, out.NRGBAAt(2, 2), "sea untouched")
}

func TestAllBorders_Cached(t *testing.T) {
	m := newTestMapper(t)
	a, err := m.AllBorders()
	require.NoError(t, err)
	b, err := m.AllBorders()
	require.NoError(t, err)
	assert.Same(t, a, b, "repeat calls serve the cached raster")
}

func TestHighlight(t *testing.T) {
	m := newTestMapper(t)

	out, err := m.Highlight("Alba")
	require.NoError(t, err)

	assert.Equal(t, pal[1], out.NRGBAAt(0, 0), "target wears neighbour color")
	assert.Equal(t, pal[1], out.NRGBAAt(3, 0), "neighbour keeps its color")
	assert.Equal(t, seaSrc, out.NRGBAAt(2, 2))

	_, err = m.Highlight("Atlantis")
	assert.ErrorIs(t, err, legend.ErrUnknownRegion)
}

type stubFlags map[string]*image.NRGBA

func (s stubFlags) Flag(name string) *image.NRGBA { return s[name] }

func TestApplyFlagPatterns(t *testing.T) {
	m := newTestMapper(t)

	flagColor := color.NRGBA{R: 7, G: 7, B: 7, A: 255}
	tile := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(tile.Pix); i += 4 {
		tile.Pix[i] = flagColor.R
		tile.Pix[i+1] = flagColor.G
		tile.Pix[i+2] = flagColor.B
		tile.Pix[i+3] = flagColor.A
	}

	base, err := m.AllBorders()
	require.NoError(t, err)

	out := m.ApplyFlagPatterns(base, stubFlags{"Borduria": tile})

	// Patches wearing Borduria's palette color (Alba's footprint after
	// AllBorders) take the flag pattern; everything else is untouched.
	assert.Equal(t, flagColor, out.NRGBAAt(0, 0))
	assert.Equal(t, pal[0], out.NRGBAAt(3, 0), "no flag asset for Alba")
	assert.Equal(t, seaSrc, out.NRGBAAt(2, 2))
}

func TestOverlay_Transparency(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	dst.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	dst.SetNRGBA(1, 0, color.NRGBA{R: 20, A: 255})

	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(1, 0, color.NRGBA{G: 200, A: 255})

	Overlay(dst, src)
	assert.Equal(t, color.NRGBA{R: 10, A: 255}, dst.NRGBAAt(0, 0), "transparent src leaves dst")
	assert.Equal(t, color.NRGBA{G: 200, A: 255}, dst.NRGBAAt(1, 0))
}

func TestOverlayMasked(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{B: 9, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{B: 9, A: 255})

	mask := raster.NewMask(2, 1)
	mask.Bits[1] = true

	OverlayMasked(dst, src, mask)
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 9, A: 255}, dst.NRGBAAt(1, 0))
}

func TestTilePattern(t *testing.T) {
	tile := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	tile.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 255})
	tile.SetNRGBA(1, 0, color.NRGBA{R: 2, A: 255})

	out := TilePattern(tile, 5, 2)
	assert.Equal(t, color.NRGBA{R: 1, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 2, A: 255}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 1, A: 255}, out.NRGBAAt(2, 1))
	assert.Equal(t, color.NRGBA{R: 1, A: 255}, out.NRGBAAt(4, 0))
}

func TestClone_Independent(t *testing.T) {
	img := testMap()
	c := Clone(img)
	c.SetNRGBA(0, 0, color.NRGBA{})
	assert.Equal(t, aSrc, img.NRGBAAt(0, 0))
}
