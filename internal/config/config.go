package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	AssetDir     string `json:"asset_dir"`
	MapImage     string `json:"map_image"`
	LegendCSV    string `json:"legend_csv"`
	CountriesCSV string `json:"countries_csv"`
	FlagsDir     string `json:"flags_dir"`
	OutputDir    string `json:"output_dir"`

	// Legend settings
	Background  string            `json:"background"`
	IgnoreColor string            `json:"ignore_color"`
	Aliases     map[string]string `json:"aliases"`

	// Render settings
	TileWidth   int `json:"tile_width"`
	WebPQuality int `json:"webp_quality"`
	Workers     int `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	AssetDir  string
	MapImage  string
	OutputDir string
	Quality   int
	Workers   int
}

// Resolve fills in any empty fields from CLI flags, then the environment,
// then auto-detected defaults. Flags take priority.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.AssetDir != "" {
		c.AssetDir = flags.AssetDir
	}
	if flags.MapImage != "" {
		c.MapImage = flags.MapImage
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Quality > 0 {
		c.WebPQuality = flags.Quality
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	// Environment fills remaining empty fields (.env is loaded by the
	// command before Resolve runs).
	envDefault(&c.AssetDir, "NMR_ASSET_DIR")
	envDefault(&c.MapImage, "NMR_MAP_IMAGE")
	envDefault(&c.LegendCSV, "NMR_LEGEND_CSV")
	envDefault(&c.CountriesCSV, "NMR_COUNTRIES_CSV")
	envDefault(&c.FlagsDir, "NMR_FLAGS_DIR")
	envDefault(&c.OutputDir, "NMR_OUTPUT_DIR")
	envDefault(&c.Background, "NMR_BACKGROUND")

	if c.AssetDir == "" {
		c.AssetDir = detectAssetDir()
	}

	// Resolve relative paths against the asset dir
	if c.AssetDir != "" {
		if c.MapImage == "" {
			c.MapImage = filepath.Join(c.AssetDir, "maps", "Europe.png")
		} else if !filepath.IsAbs(c.MapImage) {
			c.MapImage = filepath.Join(c.AssetDir, c.MapImage)
		}

		if c.LegendCSV == "" {
			c.LegendCSV = legendPathFor(c.MapImage)
		} else if !filepath.IsAbs(c.LegendCSV) {
			c.LegendCSV = filepath.Join(c.AssetDir, c.LegendCSV)
		}

		if c.CountriesCSV == "" {
			c.CountriesCSV = filepath.Join(c.AssetDir, "countries.csv")
		} else if !filepath.IsAbs(c.CountriesCSV) {
			c.CountriesCSV = filepath.Join(c.AssetDir, c.CountriesCSV)
		}

		if c.FlagsDir == "" {
			c.FlagsDir = filepath.Join(c.AssetDir, "flags")
		} else if !filepath.IsAbs(c.FlagsDir) {
			c.FlagsDir = filepath.Join(c.AssetDir, c.FlagsDir)
		}

		if c.OutputDir == "" {
			c.OutputDir = filepath.Join(c.AssetDir, "output")
		} else if !filepath.IsAbs(c.OutputDir) {
			c.OutputDir = filepath.Join(c.AssetDir, c.OutputDir)
		}
	}

	// Defaults for legend and render settings
	if c.Background == "" {
		c.Background = "Sea"
	}
	if c.IgnoreColor == "" {
		c.IgnoreColor = "#808080"
	}
	if c.TileWidth <= 0 {
		c.TileWidth = 20
	}
	if c.WebPQuality <= 0 {
		c.WebPQuality = 90
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// legendPathFor derives the legend CSV path from a map image path:
// maps/Europe.png -> maps/Europe_names.csv.
func legendPathFor(mapImage string) string {
	ext := filepath.Ext(mapImage)
	return mapImage[:len(mapImage)-len(ext)] + "_names.csv"
}

func envDefault(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func detectAssetDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir)} {
			if _, err := os.Stat(filepath.Join(base, "maps")); err == nil {
				return base
			}
		}
	}

	// Try current working directory
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, "maps")); err == nil {
		return cwd
	}

	return ""
}
