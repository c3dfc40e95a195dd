package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"neighbour-map-renderer/internal/batch"
	"neighbour-map-renderer/internal/compose"
	"neighbour-map-renderer/internal/config"
	"neighbour-map-renderer/internal/flagart"
	"neighbour-map-renderer/internal/funcutil"
	"neighbour-map-renderer/internal/legend"
	"neighbour-map-renderer/internal/numutil"
	"neighbour-map-renderer/internal/palette"
	"neighbour-map-renderer/internal/raster"

	"github.com/HugoSmits86/nativewebp"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using defaults")
	}
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	region := flag.String("region", "", "Render one region ('random' picks one weighted by area)")
	all := flag.Bool("all", false, "Render the all-regions composite instead of per-region maps")
	useFlags := flag.Bool("flags", false, "Fill regions with tiled flag patterns (with -all)")
	testN := flag.Int("test", 0, "Render only first N regions for testing")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	assetDir := flag.String("data", "", "Path to asset directory (default: auto-detect)")
	mapImage := flag.String("map", "", "Map image path (default: maps/Europe.png)")
	outputDir := flag.String("output", "", "Output directory (default: output/)")
	quality := flag.Int("quality", 0, "WebP quality 1-100 (default: 90)")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.WithError(err).Fatal("loading config")
		}
	}
	cfg.Resolve(config.Flags{
		AssetDir:  *assetDir,
		MapImage:  *mapImage,
		OutputDir: *outputDir,
		Quality:   *quality,
		Workers:   *workers,
	})
	if cfg.AssetDir == "" {
		log.Fatal("cannot find asset directory; use -data or config.json")
	}

	mapper := buildMapper(cfg)
	names := mapper.Legend.Names()

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.WithError(err).Fatal("creating output directory")
	}

	switch {
	case *all:
		img, err := mapper.AllBorders()
		if err != nil {
			log.WithError(err).Fatal("rendering composite")
		}
		out := "neighbours.webp"
		if *useFlags {
			img = mapper.ApplyFlagPatterns(img, flagCache(cfg))
			out = "neighbours_flags.webp"
		}
		path := filepath.Join(cfg.OutputDir, out)
		if err := saveWebP(path, img); err != nil {
			log.WithError(err).Fatal("saving composite")
		}
		log.WithField("path", path).Info("composite written")

	case *region != "":
		name := *region
		if name == "random" {
			name = randomRegion(mapper)
			log.WithField("region", name).Info("picked random region")
		}
		img, err := mapper.Highlight(name)
		if err != nil {
			log.WithError(err).Fatal("rendering region")
		}
		path := filepath.Join(cfg.OutputDir, name+".webp")
		if err := saveWebP(path, img); err != nil {
			log.WithError(err).Fatal("saving region")
		}
		log.WithField("path", path).Info("region written")

	default:
		if *testN > 0 && *testN < len(names) {
			names = names[:*testN]
		}
		runBatch(cfg, mapper, names)
	}
}

func buildMapper(cfg config.Config) *compose.Mapper {
	leg, err := legend.Load(cfg.LegendCSV, cfg.Background, cfg.Aliases)
	if err != nil {
		log.WithError(err).Fatal("loading legend")
	}

	src, err := loadMap(cfg.MapImage)
	if err != nil {
		log.WithError(err).Fatal("loading map image")
	}

	ignore, err := legend.ParseHexColor(cfg.IgnoreColor)
	if err != nil {
		log.WithError(err).Fatal("parsing ignore color")
	}

	names := leg.Names()
	pal := palette.Spaced(len(names))

	mapper, err := compose.NewMapper(src, leg, pal, ignore)
	if err != nil {
		log.WithError(err).Fatal("building mapper")
	}

	log.WithFields(logrus.Fields{
		"map":     cfg.MapImage,
		"regions": len(names),
	}).Info("map loaded")

	// Every pixel should be background, ignore or a palette color; strays
	// never match a region mask, so surface them early.
	allowed := append([]color.NRGBA{mapper.Background, mapper.Ignore}, pal...)
	if strays := raster.Validate(mapper.Map, allowed); len(strays) > 0 {
		n := 0
		for _, count := range strays {
			n += count
		}
		log.WithFields(logrus.Fields{"colors": len(strays), "pixels": n}).
			Warn("map contains colors not in the legend")
	}

	return mapper
}

func runBatch(cfg config.Config, mapper *compose.Mapper, names []string) {
	log.WithFields(logrus.Fields{
		"regions": len(names),
		"workers": cfg.Workers,
		"output":  cfg.OutputDir,
	}).Info("starting batch render")

	start := time.Now()
	results := batch.Run(batch.Config{
		Mapper:    mapper,
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Log:       log,
	}, names)

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			log.WithFields(logrus.Fields{"region": r.Region, "error": r.Error}).Error("render failed")
		}
	}
	log.WithFields(logrus.Fields{
		"rendered": success,
		"failed":   failed,
		"elapsed":  time.Since(start).Round(time.Millisecond).String(),
	}).Info("batch done")

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		log.WithError(err).Warn("manifest write failed")
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// flagCache builds the flag resolver; a missing countries CSV just means
// no patterns get applied.
func flagCache(cfg config.Config) *flagart.Cache {
	urls, _ := funcutil.WithFallback(func() (map[string]string, error) {
		return flagart.LoadURLs(cfg.CountriesCSV)
	}, map[string]string{}, nil)()
	if len(urls) == 0 {
		log.WithField("path", cfg.CountriesCSV).Warn("no flag URLs loaded")
	}
	return flagart.NewCache(cfg.FlagsDir, urls, cfg.TileWidth, log)
}

// randomRegion picks a region weighted by its pixel area on the map.
func randomRegion(mapper *compose.Mapper) string {
	names := mapper.Legend.Names()
	weights := make([]float64, len(names))
	for i := range names {
		weights[i] = float64(raster.MaskByColor(mapper.Map, mapper.Palette[i]).Count())
	}
	src := rand.NewPCG(rand.Uint64(), rand.Uint64())
	name, err := numutil.Choice(names, weights, src)
	if err != nil {
		return names[0]
	}
	return name
}

func loadMap(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if n, ok := img.(*image.NRGBA); ok {
		return n, nil
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}

func saveWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return nativewebp.Encode(f, img, nil)
}
