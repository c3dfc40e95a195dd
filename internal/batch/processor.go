// Package batch renders per-region highlight maps with a worker pool and
// writes them as WebP files.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"neighbour-map-renderer/internal/compose"
	"neighbour-map-renderer/internal/funcutil"
	"neighbour-map-renderer/internal/retry"

	"github.com/HugoSmits86/nativewebp"
	"github.com/sirupsen/logrus"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Mapper    *compose.Mapper
	OutputDir string
	Workers   int
	Log       *logrus.Logger

	// OnProgress, when set, is called periodically with up to two
	// arguments (done, total int); callbacks declaring fewer parameters
	// receive only what they ask for.
	OnProgress any
}

// Result holds the outcome of rendering one region.
type Result struct {
	Region  string `json:"region"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Run renders every region using a worker pool.
func Run(cfg Config, regions []string) []Result {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	total := len(regions)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p == 0 {
					continue
				}
				rate := float64(p) / time.Since(start).Seconds()
				log.WithFields(logrus.Fields{
					"done":  p,
					"total": total,
					"rate":  fmt.Sprintf("%.1f/s", rate),
				}).Info("rendering")
				if cfg.OnProgress != nil {
					if _, err := funcutil.CallTrimmed(cfg.OnProgress, int(p), total); err != nil {
						log.WithError(err).Warn("progress callback")
					}
				}
			}
		}
	}()

	// Worker pool
	regionChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range regionChan {
				results[idx] = renderRegion(cfg, regions[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range regions {
		regionChan <- i
	}
	close(regionChan)

	wg.Wait()
	close(done)

	return results
}

func renderRegion(cfg Config, region string) Result {
	img, err := cfg.Mapper.Highlight(region)
	if err != nil {
		return Result{Region: region, Error: err.Error()}
	}

	outPath := filepath.Join(cfg.OutputDir, fileName(region))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return Result{Region: region, Error: err.Error()}
	}

	// Encoding goes straight to shared storage in some setups; transient
	// write failures get a couple of retries.
	err = retry.Run(func() error {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := nativewebp.Encode(f, img, nil); err != nil {
			return fmt.Errorf("webp encode: %w", err)
		}
		return nil
	}, retry.Options{MaxRetries: 2, Interval: 250 * time.Millisecond})
	if err != nil {
		return Result{Region: region, Error: err.Error()}
	}

	return Result{Region: region, File: fileName(region), Success: true}
}

func fileName(region string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, region)
	return name + ".webp"
}
