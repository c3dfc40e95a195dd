package flagart

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToFilepath(t *testing.T) {
	p1, err := URLToFilepath("https://example.org/flags/fr.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p1, "example.org"+string(filepath.Separator)))
	assert.True(t, strings.HasSuffix(p1, ".png"))

	// Protocol, port, query and fragment are ignored.
	p2, err := URLToFilepath("http://example.org:8080/flags/fr.png?raw=1#top")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	p3, err := URLToFilepath("https://example.org/flags/de.png")
	require.NoError(t, err)
	assert.NotEqual(t, p1, p3)
}

func TestLoadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.csv")
	csv := "country,capital,flag\nFrance,Paris,https://example.org/fr.png\nSpain,Madrid,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	urls, err := LoadURLs(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"France": "https://example.org/fr.png"}, urls)
}

func TestLoadURLs_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))
	_, err := LoadURLs(path)
	assert.Error(t, err)
}

func writeFlagAsset(t *testing.T, dir, rawURL string, w, h int) {
	t.Helper()
	rel, err := URLToFilepath(rawURL)
	require.NoError(t, err)
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 200
		img.Pix[i+3] = 255
	}
	f, err := os.Create(full)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCache_Flag(t *testing.T) {
	dir := t.TempDir()
	const frURL = "https://example.org/flags/fr.png"
	writeFlagAsset(t, dir, frURL, 40, 24)

	c := NewCache(dir, map[string]string{"France": frURL}, 20, nil)

	tile := c.Flag("France")
	require.NotNil(t, tile)
	assert.Equal(t, 20, tile.Bounds().Dx(), "tile scaled to requested width")
	assert.Equal(t, 12, tile.Bounds().Dy(), "aspect ratio preserved")

	again := c.Flag("France")
	assert.Same(t, tile, again, "second lookup served from cache")

	assert.Nil(t, c.Flag("Spain"), "no URL for region")
	assert.Nil(t, c.Flag("Spain"), "negative result cached without error")
}

func TestCache_MissingAsset(t *testing.T) {
	c := NewCache(t.TempDir(), map[string]string{"France": "https://example.org/fr.png"}, 20, nil)
	assert.Nil(t, c.Flag("France"))
}

func TestScaleToWidth_NoopCases(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 5))
	img.SetNRGBA(0, 0, color.NRGBA{R: 9, A: 255})

	assert.Same(t, img, scaleToWidth(img, 10), "already at target width")
	assert.Same(t, img, scaleToWidth(img, 0), "non-positive width")
}
