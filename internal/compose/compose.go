// Package compose binds a decoded map raster to its legend and palette and
// provides the name-level operations: per-region border maps, the
// whole-map layering variant, region highlighting and flag-pattern fills.
package compose

import (
	"fmt"
	"image"
	"image/color"

	"neighbour-map-renderer/internal/cache"
	"neighbour-map-renderer/internal/legend"
	"neighbour-map-renderer/internal/raster"
)

// FlagSource resolves a region name to a flag tile ready for pattern
// fills. A nil result means no asset is available for that region.
type FlagSource interface {
	Flag(name string) *image.NRGBA
}

// Mapper holds a recolored map raster together with the legend and palette
// that define its regions. Build one with NewMapper; all operations are
// pure functions over the held raster.
type Mapper struct {
	Map        *image.NRGBA
	Legend     *legend.Legend
	Palette    []color.NRGBA
	Background color.NRGBA
	Ignore     color.NRGBA

	allBorders *cache.Value[*image.NRGBA]
}

// NewMapper recolors the source map into palette colors and returns a
// Mapper over the result. The palette must have one entry per canonical
// legend name.
func NewMapper(src *image.NRGBA, leg *legend.Legend, pal []color.NRGBA, ignore color.NRGBA) (*Mapper, error) {
	names := leg.Names()
	if len(pal) != len(names) {
		return nil, fmt.Errorf("compose: palette has %d colors for %d regions", len(pal), len(names))
	}
	bg, err := leg.BackgroundColor()
	if err != nil {
		return nil, err
	}
	recolored, err := Recolor(src, leg, pal)
	if err != nil {
		return nil, err
	}
	m := &Mapper{
		Map:        recolored,
		Legend:     leg,
		Palette:    pal,
		Background: bg,
		Ignore:     ignore,
	}
	m.allBorders = cache.NewValue(0, m.renderAllBorders)
	return m, nil
}

// Recolor replaces every region's source colors (including alias colors)
// with its palette color. Background keeps its legend color; colors not in
// the legend pass through untouched.
func Recolor(src *image.NRGBA, leg *legend.Legend, pal []color.NRGBA) (*image.NRGBA, error) {
	replace := make(map[color.NRGBA]color.NRGBA)
	for i, name := range leg.Names() {
		sources, err := leg.SourceColors(name)
		if err != nil {
			return nil, err
		}
		for _, c := range sources {
			replace[c] = pal[i]
		}
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			c := color.NRGBA{R: src.Pix[si], G: src.Pix[si+1], B: src.Pix[si+2], A: src.Pix[si+3]}
			if r, ok := replace[c]; ok {
				c = r
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

// BorderMap renders the nearest-neighbour recoloring for one region,
// resolving aliases first. Unknown names fail with legend.ErrUnknownRegion.
func (m *Mapper) BorderMap(region string) (*image.NRGBA, error) {
	idx, err := m.Legend.Index(region)
	if err != nil {
		return nil, err
	}
	return raster.BorderMap(m.Map, m.Palette[idx], m.Background, m.Ignore), nil
}

// AllBorders layers every region's border map over a copy of the base map.
// The result is cached on the Mapper; callers must not mutate it.
func (m *Mapper) AllBorders() (*image.NRGBA, error) {
	return m.allBorders.Get()
}

func (m *Mapper) renderAllBorders() (*image.NRGBA, error) {
	out := Clone(m.Map)
	for _, name := range m.Legend.Names() {
		borders, err := m.BorderMap(name)
		if err != nil {
			return nil, err
		}
		Overlay(out, borders)
	}
	return out, nil
}

// Highlight renders one region's border map over the base map with every
// uninvolved region dimmed to the ignore color. Regions whose color appears
// in the border output (the neighbours) keep their palette color.
func (m *Mapper) Highlight(region string) (*image.NRGBA, error) {
	borders, err := m.BorderMap(region)
	if err != nil {
		return nil, err
	}

	present := make(map[color.NRGBA]bool)
	b := borders.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := borders.PixOffset(x, y)
			if borders.Pix[i+3] == 0 {
				continue
			}
			present[color.NRGBA{R: borders.Pix[i], G: borders.Pix[i+1], B: borders.Pix[i+2], A: borders.Pix[i+3]}] = true
		}
	}

	out := Clone(m.Map)
	ob := out.Bounds()
	for y := ob.Min.Y; y < ob.Max.Y; y++ {
		for x := ob.Min.X; x < ob.Max.X; x++ {
			i := out.PixOffset(x, y)
			c := color.NRGBA{R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2], A: out.Pix[i+3]}
			if c == m.Background || present[c] {
				continue
			}
			out.Pix[i] = m.Ignore.R
			out.Pix[i+1] = m.Ignore.G
			out.Pix[i+2] = m.Ignore.B
			out.Pix[i+3] = m.Ignore.A
		}
	}

	Overlay(out, borders)
	return out, nil
}

// ApplyFlagPatterns replaces each region's color patches in base with a
// tiled flag thumbnail. Regions without a flag asset keep their color.
// base is typically the AllBorders output.
func (m *Mapper) ApplyFlagPatterns(base *image.NRGBA, flags FlagSource) *image.NRGBA {
	out := Clone(base)
	bb := base.Bounds()
	for i, name := range m.Legend.Names() {
		tile := flags.Flag(name)
		if tile == nil {
			continue
		}
		mask := raster.MaskByColor(base, m.Palette[i])
		if mask.Count() == 0 {
			continue
		}
		pattern := TilePattern(tile, bb.Dx(), bb.Dy())
		OverlayMasked(out, pattern, mask)
	}
	return out
}

// Overlay draws src over dst in place, source-over. Both rasters must have
// the same dimensions.
func Overlay(dst, src *image.NRGBA) {
	db, sb := dst.Bounds(), src.Bounds()
	w, h := db.Dx(), db.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(sb.Min.X+x, sb.Min.Y+y)
			a := src.Pix[si+3]
			if a == 0 {
				continue
			}
			di := dst.PixOffset(db.Min.X+x, db.Min.Y+y)
			if a == 255 {
				copy(dst.Pix[di:di+4], src.Pix[si:si+4])
				continue
			}
			sa := uint32(a)
			da := uint32(255 - a)
			for ch := 0; ch < 3; ch++ {
				dst.Pix[di+ch] = uint8((uint32(src.Pix[si+ch])*sa + uint32(dst.Pix[di+ch])*da) / 255)
			}
			if uint32(dst.Pix[di+3])+sa > 255 {
				dst.Pix[di+3] = 255
			} else {
				dst.Pix[di+3] += a
			}
		}
	}
}

// OverlayMasked copies src pixels into dst wherever the mask is true.
func OverlayMasked(dst, src *image.NRGBA, mask *raster.Mask) {
	db, sb := dst.Bounds(), src.Bounds()
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if !mask.At(x, y) {
				continue
			}
			si := src.PixOffset(sb.Min.X+x, sb.Min.Y+y)
			di := dst.PixOffset(db.Min.X+x, db.Min.Y+y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}

// TilePattern repeats a tile across a w by h raster, anchored at the origin.
func TilePattern(tile *image.NRGBA, w, h int) *image.NRGBA {
	tb := tile.Bounds()
	tw, th := tb.Dx(), tb.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if tw == 0 || th == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := tile.PixOffset(tb.Min.X+x%tw, tb.Min.Y+y%th)
			di := out.PixOffset(x, y)
			copy(out.Pix[di:di+4], tile.Pix[si:si+4])
		}
	}
	return out
}

// Clone returns a copy of img normalized to a zero-origin raster.
func Clone(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := out.PixOffset(0, y)
		copy(out.Pix[di:di+4*b.Dx()], img.Pix[si:si+4*b.Dx()])
	}
	return out
}
