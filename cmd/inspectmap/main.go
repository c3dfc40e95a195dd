// inspectmap checks a map image against its legend: it reports pixels
// whose color matches no legend entry and can suggest a palette for maps
// that ship without a legend CSV.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"os"

	"neighbour-map-renderer/internal/config"
	"neighbour-map-renderer/internal/legend"
	"neighbour-map-renderer/internal/palette"
	"neighbour-map-renderer/internal/raster"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using defaults")
	}
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	assetDir := flag.String("data", "", "Path to asset directory")
	mapImage := flag.String("map", "", "Map image path")
	suggest := flag.Int("suggest", 0, "Suggest a palette of N colors extracted from the map")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.WithError(err).Fatal("loading config")
		}
	}
	cfg.Resolve(config.Flags{AssetDir: *assetDir, MapImage: *mapImage})

	img, err := loadMap(cfg.MapImage)
	if err != nil {
		log.WithError(err).Fatal("loading map image")
	}
	b := img.Bounds()
	log.WithFields(logrus.Fields{
		"map":    cfg.MapImage,
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Info("map loaded")

	if *suggest > 0 {
		for i, c := range palette.FromImage(img, *suggest) {
			fmt.Printf("  %2d  #%02x%02x%02x\n", i, c.R, c.G, c.B)
		}
		return
	}

	leg, err := legend.Load(cfg.LegendCSV, cfg.Background, cfg.Aliases)
	if err != nil {
		log.WithError(err).Fatal("loading legend; use -suggest for unlegended maps")
	}

	// Allowed source colors: every legend record, aliases included.
	var allowed []color.NRGBA
	if bg, err := leg.BackgroundColor(); err == nil {
		allowed = append(allowed, bg)
	}
	if ignore, err := legend.ParseHexColor(cfg.IgnoreColor); err == nil {
		allowed = append(allowed, ignore)
	}
	for _, name := range leg.Names() {
		colors, err := leg.SourceColors(name)
		if err != nil {
			log.WithError(err).Fatal("resolving legend colors")
		}
		allowed = append(allowed, colors...)
	}

	strays := raster.Validate(img, allowed)
	if len(strays) == 0 {
		log.WithField("regions", len(leg.Names())).Info("map is clean")
		return
	}

	total := 0
	for c, count := range strays {
		total += count
		nearest := palette.Nearest(allowed, c)
		fmt.Printf("  stray #%02x%02x%02x x%d (nearest legend color #%02x%02x%02x)\n",
			c.R, c.G, c.B, count,
			allowed[nearest].R, allowed[nearest].G, allowed[nearest].B)
	}
	log.WithFields(logrus.Fields{"colors": len(strays), "pixels": total}).
		Warn("map contains colors not in the legend")
	os.Exit(1)
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
