package tiffraster

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of tools built on this package.
type Config struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn or error
	LogFormat string `yaml:"log_format"` // json or text
	// Locking toggles the sister-file lock. Unset means enabled.
	Locking *bool `yaml:"locking"`
	// NoData is the no-data sentinel applied to grayscale pages.
	NoData *float64 `yaml:"nodata"`
	// TileSize is the tile edge for new tiled resolutions.
	TileSize int `yaml:"tile_size"`
	// JPEGQuality is the quality of new JPEG resolutions, 1-100.
	JPEGQuality int `yaml:"jpeg_quality"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		LogFormat:   "text",
		TileSize:    defaultTileSize,
		JPEGQuality: 75,
	}
}

// LoadConfig reads a YAML configuration file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the field ranges.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.TileSize <= 0 || c.TileSize%16 != 0 {
		return fmt.Errorf("tile size %d is not a multiple of 16", c.TileSize)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d out of range", c.JPEGQuality)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

// Options converts c to Open options, using logger for logging.
func (c Config) Options(logger *slog.Logger) []Option {
	opts := []Option{WithLogger(logger)}
	if c.Locking != nil && !*c.Locking {
		opts = append(opts, WithoutLocking())
	}
	if c.NoData != nil {
		opts = append(opts, WithNoData(*c.NoData))
	}
	return opts
}
