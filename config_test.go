package tiffraster

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiffraster.yaml")
	yml := "log_level: debug\nlog_format: json\nlocking: false\nnodata: -9999\ntile_size: 512\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogFormat != "json" || cfg.TileSize != 512 || cfg.JPEGQuality != 75 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Locking == nil || *cfg.Locking || cfg.NoData == nil || *cfg.NoData != -9999 {
		t.Fatalf("locking %v, nodata %v", cfg.Locking, cfg.NoData)
	}
	if l, err := cfg.Level(); err != nil || l != slog.LevelDebug {
		t.Fatalf("level = %v, %v", l, err)
	}

	o := buildOptions(cfg.Options(nil))
	if o.locking || o.noData == nil || *o.noData != -9999 {
		t.Fatalf("options = %+v", o)
	}
	if o := buildOptions(DefaultConfig().Options(nil)); !o.locking || o.noData != nil || o.logger == nil {
		t.Fatalf("default options = %+v", o)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		name string
		edit func(*Config)
	}{
		{"level", func(c *Config) { c.LogLevel = "loud" }},
		{"format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero tile", func(c *Config) { c.TileSize = 0 }},
		{"odd tile", func(c *Config) { c.TileSize = 100 }},
		{"quality", func(c *Config) { c.JPEGQuality = 101 }},
	} {
		c := DefaultConfig()
		tt.edit(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: accepted %+v", tt.name, c)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("missing file err = %v", err)
	}
	for name, yml := range map[string]string{
		"syntax.yaml": "tile_size: [",
		"range.yaml":  "tile_size: 17\n",
		"type.yaml":   "jpeg_quality: high\n",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}
