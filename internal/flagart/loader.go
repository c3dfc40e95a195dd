package flagart

import (
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

// URLToFilepath converts a flag URL into the on-disk cache path
// host/sha1-of-path.ext. Protocol, port, query and fragment are ignored,
// so the same asset fetched over http or https lands on one file.
func URLToFilepath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("flagart: parse url %q: %w", rawURL, err)
	}
	ext := path.Ext(u.Path)
	stem := strings.TrimSuffix(u.Path, ext)
	sum := sha1.Sum([]byte(stem))
	return filepath.Join(u.Hostname(), hex.EncodeToString(sum[:])+ext), nil
}

// LoadURLs reads a countries CSV and returns the name->flag-URL mapping.
// The file needs a "country" (or "name") column and a "flag" column; rows
// with an empty flag cell are skipped.
func LoadURLs(csvPath string) (map[string]string, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("flagart: open %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("flagart: parse %s: %w", csvPath, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("flagart: %s is empty", csvPath)
	}

	nameCol, flagCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "country", "name":
			nameCol = i
		case "flag":
			flagCol = i
		}
	}
	if nameCol < 0 || flagCol < 0 {
		return nil, fmt.Errorf("flagart: %s: header must contain country and flag columns", csvPath)
	}

	urls := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= nameCol || len(row) <= flagCol {
			continue
		}
		flag := strings.TrimSpace(row[flagCol])
		if flag == "" {
			continue
		}
		urls[strings.TrimSpace(row[nameCol])] = flag
	}
	return urls, nil
}

// loadImage decodes a flag asset. PNG, JPEG and TGA decoders are registered.
func loadImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flagart: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("flagart: decode %s: %w", path, err)
	}
	return toNRGBA(img), nil
}

// scaleToWidth resizes an image to the given width keeping aspect ratio.
func scaleToWidth(img *image.NRGBA, width int) *image.NRGBA {
	b := img.Bounds()
	if width <= 0 || b.Dx() == 0 || b.Dy() == 0 || b.Dx() == width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
