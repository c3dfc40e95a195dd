// Package legend maps region names to raster colors. A legend is loaded
// once from a name/color CSV and is immutable afterwards. Some names are
// aliases that merge into a canonical region (dependencies counted under
// their parent state); alias resolution always happens before color or
// palette-index lookup.
package legend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
)

// ErrUnknownRegion indicates a region name absent from the legend after
// alias resolution.
var ErrUnknownRegion = errors.New("legend: unknown region name")

// Record is one legend entry: a region name and its color in the source map.
type Record struct {
	Name  string
	Color color.NRGBA
}

// Legend is an ordered name->color mapping with alias merging and a
// designated background entry.
type Legend struct {
	records    []Record
	index      map[string]int
	aliases    map[string]string
	background string
}

// New builds a legend from ordered records. background names the entry
// excluded from region listings; aliases maps merged names to their
// canonical region and may be nil.
func New(records []Record, background string, aliases map[string]string) *Legend {
	idx := make(map[string]int, len(records))
	for i, r := range records {
		idx[r.Name] = i
	}
	a := make(map[string]string, len(aliases))
	for k, v := range aliases {
		a[k] = v
	}
	return &Legend{records: records, index: idx, aliases: a, background: background}
}

// Load reads a legend CSV with "name" and "color" columns (hex colors).
func Load(path, background string, aliases map[string]string) (*Legend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("legend: open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("legend: parse %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("legend: %s is empty", path)
	}

	nameCol, colorCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameCol = i
		case "color":
			colorCol = i
		}
	}
	if nameCol < 0 || colorCol < 0 {
		return nil, fmt.Errorf("legend: %s: header must contain name and color columns", path)
	}

	records := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) <= nameCol || len(row) <= colorCol {
			return nil, fmt.Errorf("legend: %s row %d: too few columns", path, n+2)
		}
		c, err := ParseHexColor(row[colorCol])
		if err != nil {
			return nil, fmt.Errorf("legend: %s row %d: %w", path, n+2, err)
		}
		records = append(records, Record{Name: strings.TrimSpace(row[nameCol]), Color: c})
	}

	return New(records, background, aliases), nil
}

// Canonical resolves an alias to its canonical region name. Names without
// an alias entry resolve to themselves.
func (l *Legend) Canonical(name string) string {
	if canon, ok := l.aliases[name]; ok {
		return canon
	}
	return name
}

// Color returns the source-map color for a region, resolving aliases first.
func (l *Legend) Color(name string) (color.NRGBA, error) {
	i, ok := l.index[l.Canonical(name)]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	return l.records[i].Color, nil
}

// Has reports whether the name resolves to a legend entry.
func (l *Legend) Has(name string) bool {
	_, ok := l.index[l.Canonical(name)]
	return ok
}

// Background returns the background entry's name.
func (l *Legend) Background() string {
	return l.background
}

// BackgroundColor returns the background entry's color.
func (l *Legend) BackgroundColor() (color.NRGBA, error) {
	i, ok := l.index[l.background]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: background %q", ErrUnknownRegion, l.background)
	}
	return l.records[i].Color, nil
}

// Names returns canonical region names in legend order, excluding the
// background and any aliased names. The position of a name in this slice
// is its palette index.
func (l *Legend) Names() []string {
	names := make([]string, 0, len(l.records))
	for _, r := range l.records {
		if r.Name == l.background {
			continue
		}
		if _, aliased := l.aliases[r.Name]; aliased {
			continue
		}
		names = append(names, r.Name)
	}
	return names
}

// Index returns the palette index of a region, resolving aliases first.
func (l *Legend) Index(name string) (int, error) {
	canon := l.Canonical(name)
	for i, n := range l.Names() {
		if n == canon {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// SourceColors returns, for a canonical region, the colors of the region
// itself plus every alias merged into it. Used when recoloring a source map.
func (l *Legend) SourceColors(name string) ([]color.NRGBA, error) {
	canon := l.Canonical(name)
	i, ok := l.index[canon]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	colors := []color.NRGBA{l.records[i].Color}
	for alias, target := range l.aliases {
		if target != canon {
			continue
		}
		if j, ok := l.index[alias]; ok {
			colors = append(colors, l.records[j].Color)
		}
	}
	return colors, nil
}

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa (leading # optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	hex := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	pair := func(i int) (uint8, bool) {
		hi, ok1 := hex(s[i])
		lo, ok2 := hex(s[i+1])
		return hi<<4 | lo, ok1 && ok2
	}

	c := color.NRGBA{A: 0xff}
	switch len(s) {
	case 3:
		var ok [3]bool
		var v [3]uint8
		for i := 0; i < 3; i++ {
			v[i], ok[i] = hex(s[i])
			v[i] = v[i]<<4 | v[i]
		}
		if !ok[0] || !ok[1] || !ok[2] {
			return color.NRGBA{}, fmt.Errorf("legend: invalid hex color %q", s)
		}
		c.R, c.G, c.B = v[0], v[1], v[2]
	case 8:
		a, ok := pair(6)
		if !ok {
			return color.NRGBA{}, fmt.Errorf("legend: invalid hex color %q", s)
		}
		c.A = a
		fallthrough
	case 6:
		r, ok1 := pair(0)
		g, ok2 := pair(2)
		b, ok3 := pair(4)
		if !ok1 || !ok2 || !ok3 {
			return color.NRGBA{}, fmt.Errorf("legend: invalid hex color %q", s)
		}
		c.R, c.G, c.B = r, g, b
	default:
		return color.NRGBA{}, fmt.Errorf("legend: invalid hex color %q", s)
	}
	return c, nil
}
