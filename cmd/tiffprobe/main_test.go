package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
)

func testEnv(t *testing.T, out io.Writer) *env {
	t.Helper()
	e, err := loadEnv("", "error", "text", out, io.Discard)
	if err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	return e
}

func TestCreateInfoDetect(t *testing.T) {
	tests := []struct {
		name  string
		cmd   CreateCmd
		block string
	}{
		{
			name:  "strips",
			cmd:   CreateCmd{Width: 40, Height: 20, Pixel: "rgb24", Codec: "none"},
			block: "strip 40x20",
		},
		{
			name:  "jpeg tiles",
			cmd:   CreateCmd{Width: 300, Height: 20, Pixel: "rgb24", Codec: "jpeg", Tiled: true},
			block: "tile 256x256",
		},
		{
			name:  "gray lzw",
			cmd:   CreateCmd{Width: 8, Height: 8, Pixel: "gray8", Codec: "lzw"},
			block: "strip 8x8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.tif")
			var out bytes.Buffer
			e := testEnv(t, &out)
			cmd := tt.cmd
			cmd.Path = path
			if err := cmd.Run(e); err != nil {
				t.Fatalf("CreateCmd.Run() error = %v", err)
			}

			out.Reset()
			if err := (&InfoCmd{Path: path}).Run(e); err != nil {
				t.Fatalf("InfoCmd.Run() error = %v", err)
			}
			if !strings.Contains(out.String(), tt.block) {
				t.Errorf("info output missing %q:\n%s", tt.block, out.String())
			}

			out.Reset()
			if err := (&DetectCmd{Paths: []string{path}}).Run(e); err != nil {
				t.Fatalf("DetectCmd.Run() error = %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != path+"\ttiff" {
				t.Errorf("detect output = %q", got)
			}
		})
	}
}

func TestCreateCmdErrors(t *testing.T) {
	e := testEnv(t, io.Discard)
	dir := t.TempDir()
	for _, cmd := range []CreateCmd{
		{Width: 8, Height: 8, Pixel: "rgb48", Codec: "none"},
		{Width: 8, Height: 8, Pixel: "rgb24", Codec: "webp"},
		{Width: 8, Height: 8, Pixel: "gray1", Codec: "fax-rle"},
		{Width: 8, Height: 8, Pixel: "rgb24", Codec: "fax-g4"},
		{Width: 0, Height: 8, Pixel: "rgb24", Codec: "none"},
	} {
		cmd.Path = filepath.Join(dir, "x.tif")
		if err := cmd.Run(e); err == nil {
			t.Errorf("%s/%s %dx%d: no error", cmd.Pixel, cmd.Codec, cmd.Width, cmd.Height)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "x.tif")); !os.IsNotExist(err) {
		t.Errorf("failed create left a file: %v", err)
	}
}

func TestDetectCmdUnknown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text, not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := (&DetectCmd{Paths: []string{path}}).Run(testEnv(t, &out)); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "\tunknown") {
		t.Errorf("detect output = %q", out.String())
	}
}

func TestCapsCmd(t *testing.T) {
	var out bytes.Buffer
	e := testEnv(t, &out)
	if err := (&CapsCmd{Family: "bilevel"}).Run(e); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "FAMILY") {
		t.Fatalf("caps output:\n%s", out.String())
	}
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, "bilevel") {
			t.Errorf("unexpected row %q", l)
		}
	}
	if !strings.Contains(out.String(), "fax-rle") {
		t.Errorf("bilevel rows miss fax-rle:\n%s", out.String())
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(cfgPath, []byte("log_level: warn\ntile_size: 128\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	e, err := loadEnv(cfgPath, "", "json", io.Discard, &logs)
	if err != nil {
		t.Fatal(err)
	}
	if e.cfg.TileSize != 128 || e.cfg.LogFormat != "json" {
		t.Fatalf("config = %+v", e.cfg)
	}
	e.logger.Info("hidden")
	e.logger.Warn("shown", "k", "v")
	var rec map[string]any
	if err := json.Unmarshal(logs.Bytes(), &rec); err != nil {
		t.Fatalf("log output %q: %v", logs.String(), err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}
	if _, err := time.Parse(time.RFC3339, rec["time"].(string)); err != nil {
		t.Fatalf("time %v: %v", rec["time"], err)
	}

	if _, err := loadEnv("", "", "xml", io.Discard, io.Discard); err == nil {
		t.Error("bad log format accepted")
	}
	if _, err := loadEnv("", "chatty", "", io.Discard, io.Discard); err == nil {
		t.Error("bad log level accepted")
	}
	if _, err := loadEnv(filepath.Join(dir, "missing.yaml"), "", "", io.Discard, io.Discard); err == nil {
		t.Error("missing config accepted")
	}
}

func TestParseFlags(t *testing.T) {
	parser, err := kong.New(&CLI, kong.Name("tiffprobe"), kong.Exit(func(int) { t.Fatal("exit") }))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse([]string{"--log-level", "debug", "caps", "--family", "cmyk"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Command() != "caps" || CLI.Caps.Family != "cmyk" || CLI.LogLevel != "debug" {
		t.Fatalf("parsed %q, family %q, level %q", ctx.Command(), CLI.Caps.Family, CLI.LogLevel)
	}
	if _, err := parser.Parse([]string{"create", "x.tif"}); err == nil {
		t.Fatal("create without size accepted")
	}
}
