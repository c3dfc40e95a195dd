// Package flagart resolves region names to flag thumbnails for pattern
// fills. Assets are pre-fetched into a local directory by external tooling
// under the URL-derived path scheme of URLToFilepath; no fetching happens
// in-process.
package flagart

import (
	"image"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Cache is a concurrency-safe flag tile cache over an asset directory.
// A nil tile is cached for names whose asset is missing or undecodable so
// the disk is only probed once per name.
type Cache struct {
	mu        sync.RWMutex
	items     map[string]*image.NRGBA
	dir       string
	urls      map[string]string
	tileWidth int
	log       *logrus.Logger
}

// NewCache creates a flag cache reading from dir, with one URL per region
// name (see LoadURLs) and tiles scaled to tileWidth.
func NewCache(dir string, urls map[string]string, tileWidth int, log *logrus.Logger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{
		items:     make(map[string]*image.NRGBA),
		dir:       dir,
		urls:      urls,
		tileWidth: tileWidth,
		log:       log,
	}
}

// Flag returns the scaled flag tile for a region, or nil when no usable
// asset exists. Implements compose.FlagSource.
func (c *Cache) Flag(name string) *image.NRGBA {
	c.mu.RLock()
	if tile, ok := c.items[name]; ok {
		c.mu.RUnlock()
		return tile
	}
	c.mu.RUnlock()

	tile := c.load(name)

	c.mu.Lock()
	if cached, ok := c.items[name]; ok {
		c.mu.Unlock()
		return cached
	}
	c.items[name] = tile
	c.mu.Unlock()

	return tile
}

func (c *Cache) load(name string) *image.NRGBA {
	rawURL, ok := c.urls[name]
	if !ok {
		return nil
	}
	rel, err := URLToFilepath(rawURL)
	if err != nil {
		c.log.WithFields(logrus.Fields{"region": name, "url": rawURL}).Warn("bad flag url")
		return nil
	}
	img, err := loadImage(filepath.Join(c.dir, rel))
	if err != nil {
		c.log.WithFields(logrus.Fields{"region": name, "path": rel}).Debug("flag asset unavailable")
		return nil
	}
	return scaleToWidth(img, c.tileWidth)
}
