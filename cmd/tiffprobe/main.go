// Command tiffprobe inspects and creates TIFF raster files.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fumiama/tiffraster"
)

// CLI defines the command-line interface for tiffprobe.
var CLI struct {
	Config    string `name:"config" short:"c" help:"Config file (YAML)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (json, text)"`

	Detect DetectCmd `cmd:"" help:"Report the format variant of files"`
	Info   InfoCmd   `cmd:"" help:"Show pages and resolutions of a file"`
	Caps   CapsCmd   `cmd:"" help:"List the capability matrix"`
	Create CreateCmd `cmd:"" help:"Create a file with one blank page"`
}

// env is what every command runs with.
type env struct {
	cfg    tiffraster.Config
	logger *slog.Logger
	out    io.Writer
}

func (e *env) options() []tiffraster.Option { return e.cfg.Options(e.logger) }

func newLogger(w io.Writer, cfg tiffraster.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func loadEnv(configPath, level, format string, out, logOut io.Writer) (*env, error) {
	cfg := tiffraster.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = tiffraster.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if level != "" {
		cfg.LogLevel = level
	}
	if format != "" {
		cfg.LogFormat = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(logOut, cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, out: out}, nil
}

// DetectCmd reports the format variant of each file.
type DetectCmd struct {
	Paths []string `arg:"" help:"Files to inspect" type:"existingfile"`
}

func (c *DetectCmd) Run(e *env) error {
	for _, p := range c.Paths {
		name, err := detectPath(p)
		switch {
		case errors.Is(err, tiffraster.ErrFormat):
			name = "unknown"
		case err != nil:
			return fmt.Errorf("%s: %w", p, err)
		}
		if name == "tiff" && !tiffraster.IsKindOfPath(p, e.options()...) {
			name = "unknown"
		}
		fmt.Fprintf(e.out, "%s\t%s\n", p, name)
	}
	return nil
}

func detectPath(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return tiffraster.DetectFormat(f)
}

// InfoCmd prints the pages and resolution pyramids of a file.
type InfoCmd struct {
	Path string `arg:"" help:"File to inspect" type:"existingfile"`
}

func (c *InfoCmd) Run(e *env) error {
	f, err := tiffraster.Open(c.Path, tiffraster.ReadOnly, e.options()...)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := f.CountPages()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tLEVEL\tSIZE\tBLOCK\tPIXEL\tCODEC")
	for i := 0; i < n; i++ {
		p, err := f.Page(i)
		if err != nil {
			return err
		}
		if p.Empty {
			fmt.Fprintf(tw, "%d\t-\t-\t-\t-\t-\n", i)
			continue
		}
		for j, r := range p.Resolutions {
			printResolution(tw, fmt.Sprint(i), fmt.Sprint(j), r)
		}
		if p.Thumbnail != nil {
			printResolution(tw, fmt.Sprint(i), "thumb", *p.Thumbnail)
		}
	}
	return tw.Flush()
}

func printResolution(w io.Writer, page, level string, r tiffraster.ResolutionDescriptor) {
	fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s %dx%d\t%s\t%s\n",
		page, level, r.Width, r.Height, r.Block, r.BlockWidth, r.BlockHeight, r.Pixel, r.Codec)
}

// CapsCmd prints the capability matrix.
type CapsCmd struct {
	Family string `name:"family" help:"Only show this pixel family"`
}

func (c *CapsCmd) Run(e *env) error {
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tCODEC\tBLOCK\tACCESS")
	for _, ent := range tiffraster.Registry().Entries() {
		if c.Family != "" && ent.Family.String() != c.Family {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ent.Family, ent.Codec, ent.Block, ent.Access)
	}
	return tw.Flush()
}

// CreateCmd writes a file holding one blank page. Every block is sparse.
type CreateCmd struct {
	Path   string `arg:"" help:"File to create" type:"path"`
	Width  int    `name:"width" required:"" help:"Page width"`
	Height int    `name:"height" required:"" help:"Page height"`
	Pixel  string `name:"pixel" default:"rgb24" help:"Pixel kind"`
	Codec  string `name:"codec" default:"none" help:"Codec"`
	Tiled  bool   `name:"tiled" help:"Use tiles instead of strips"`
}

func (c *CreateCmd) Run(e *env) error {
	kind, ok := tiffraster.ParsePixelKind(c.Pixel)
	if !ok {
		return fmt.Errorf("unknown pixel kind %q", c.Pixel)
	}
	codec, ok := tiffraster.ParseCodecKind(c.Codec)
	if !ok {
		return fmt.Errorf("unknown codec %q", c.Codec)
	}
	r := tiffraster.ResolutionDescriptor{
		Width:  c.Width,
		Height: c.Height,
		Pixel:  tiffraster.PixelType{Kind: kind},
		Codec:  tiffraster.Codec{Kind: codec},
	}
	if codec == tiffraster.CodecJPEG {
		r.Codec.Quality = e.cfg.JPEGQuality
		r.Codec.EmbedTables = true
		r.Codec.ColorTransform = kind.Samples() >= 3
	}
	across, down := 1, 1
	if c.Tiled {
		r.Block = tiffraster.BlockTile
		r.BlockWidth, r.BlockHeight = e.cfg.TileSize, e.cfg.TileSize
		across = (c.Width + e.cfg.TileSize - 1) / e.cfg.TileSize
		down = (c.Height + e.cfg.TileSize - 1) / e.cfg.TileSize
	} else {
		r.BlockHeight = c.Height
	}
	r.BlockData = make([][]byte, across*down)

	f, err := tiffraster.Create(c.Path, e.options()...)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.AddPage(&tiffraster.PageDescriptor{
		Resolutions: []tiffraster.ResolutionDescriptor{r},
		Attributes:  tiffraster.Attributes{Software: "tiffprobe"},
	}); err != nil {
		return err
	}
	return f.Save()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tiffprobe"),
		kong.Description("Inspect and create TIFF raster files"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	e, err := loadEnv(CLI.Config, CLI.LogLevel, CLI.LogFormat, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
	err = ctx.Run(e)
	ctx.FatalIfErrorf(err)
}
