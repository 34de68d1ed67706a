package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/menta2k/grid-splitter/internal/config"
	"github.com/menta2k/grid-splitter/internal/logging"
	"github.com/menta2k/grid-splitter/internal/utils"
	"github.com/menta2k/grid-splitter/pkg/export"
	"github.com/menta2k/grid-splitter/pkg/host"
	"github.com/menta2k/grid-splitter/pkg/loader"
)

func main() {
	// .env provides flag defaults; missing file is fine.
	_ = godotenv.Load()

	var in, outDir, ext, cfgPath, logFile string
	var cols, rows, padding, quality int
	var auto, lossless, archive, debug bool

	flag.StringVar(&in, "in", envOr("GRID_SPLITTER_IN", ""), "input image path or URL (jpg/png/webp)")
	flag.StringVar(&outDir, "out", envOr("GRID_SPLITTER_OUT", "out"), "output directory")
	flag.IntVar(&cols, "cols", envOrInt("GRID_SPLITTER_COLS", 0), "number of grid columns")
	flag.IntVar(&rows, "rows", envOrInt("GRID_SPLITTER_ROWS", 0), "number of grid rows")
	flag.IntVar(&padding, "padding", 0, "gutter width in pixels between cells")
	flag.BoolVar(&auto, "auto", false, "detect gutter width automatically (overrides -padding)")

	flag.StringVar(&ext, "ext", "", "output format for cells: png|jpg|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP lossless mode")
	flag.BoolVar(&archive, "zip", false, "write a single ZIP archive instead of individual files")

	flag.StringVar(&cfgPath, "config", "", "YAML config file (defaults applied underneath flags)")
	flag.StringVar(&logFile, "logfile", envOr("GRID_SPLITTER_LOGFILE", ""), "log file path (rotated)")
	flag.BoolVar(&debug, "debug", false, "verbose logging")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.png|URL -cols N -rows N [-auto] [-padding px] [-out outdir] [-ext png|jpg|webp] [-zip]",
			filepath.Base(os.Args[0]))
	}
	if !loader.IsURL(in) {
		if !utils.FileExists(in) {
			log.Fatalf("input %s does not exist", in)
		}
		if !utils.IsImageFile(in) {
			log.Fatalf("input %s is not a supported image file", in)
		}
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	// Flags override the config file. An explicitly passed flag wins
	// even at its zero value, so -padding 0 and -auto=false work.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(cfg, flagValues{
		cols:     cols,
		rows:     rows,
		padding:  padding,
		quality:  quality,
		auto:     auto,
		lossless: lossless,
		debug:    debug,
		ext:      ext,
	}, set)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Development, logFile)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	h, err := host.New(logger)
	if err != nil {
		// Capability errors are fatal to offloading; there is no silent
		// main-goroutine fallback.
		color.Red("cannot start execution host: %v", err)
		os.Exit(1)
	}
	defer h.Close()

	img, err := loader.Load(in)
	if err != nil {
		color.Red("load %s: %v", in, err)
		os.Exit(1)
	}
	bounds := img.Bounds()
	logger.Info("image loaded",
		zap.String("source", in),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()))

	ctx := context.Background()
	grid := cfg.Split()

	// Detect first, then crop with the detected value. The two workers
	// give no cross-task ordering, so the sequencing lives here.
	if cfg.Grid.AutoDetect {
		estimate, err := h.DetectPadding(ctx, host.NewImageHandle(img))
		if err != nil {
			color.Red("gutter detection: %v", err)
			os.Exit(1)
		}
		logger.Info("gutter detected", zap.Int("size_px", estimate.SizePx))
		grid.Padding = estimate.SizePx
	}

	cells, err := h.CropImage(ctx, host.NewImageHandle(img), grid)
	if err != nil {
		color.Red("crop: %v", err)
		os.Exit(1)
	}

	opts := export.Options{
		Format:   cfg.Output.Format,
		Quality:  cfg.Output.Quality,
		Lossless: cfg.Output.Lossless,
		Prefix:   utils.BaseName(in),
	}

	if archive || cfg.Output.Archive {
		zipPath := filepath.Join(outDir, utils.BaseName(in)+".zip")
		if err := export.WriteArchiveFile(cells, zipPath, opts); err != nil {
			color.Red("archive: %v", err)
			os.Exit(1)
		}
		color.Green("wrote %s (%d cells, %s)", zipPath, len(cells), utils.FormatFileSize(fileSize(zipPath)))
		return
	}

	paths, err := export.WriteCells(cells, outDir, opts)
	if err != nil {
		color.Red("export: %v", err)
		os.Exit(1)
	}
	var total int64
	for _, p := range paths {
		fmt.Println(p)
		total += fileSize(p)
	}
	color.Green("wrote %d cells (%dx%d grid, padding %dpx, %s)",
		len(paths), grid.Columns, grid.Rows, grid.Padding, utils.FormatFileSize(total))
}

// flagValues carries the parsed flag set into applyFlags so the
// override rules are testable.
type flagValues struct {
	cols, rows, padding, quality int
	auto, lossless, debug        bool
	ext                          string
}

// applyFlags layers command-line values over cfg. set holds the names
// of flags the user passed explicitly; those override the config file
// regardless of value, while untouched zero-value flags leave the
// config alone.
func applyFlags(cfg *config.Config, v flagValues, set map[string]bool) {
	if v.cols > 0 {
		cfg.Grid.Columns = v.cols
	}
	if v.rows > 0 {
		cfg.Grid.Rows = v.rows
	}
	if set["padding"] {
		cfg.Grid.Padding = v.padding
	}
	if set["auto"] {
		cfg.Grid.AutoDetect = v.auto
	}
	if v.ext != "" {
		cfg.Output.Format = v.ext
	}
	if v.quality > 0 {
		cfg.Output.Quality = v.quality
	}
	if v.lossless {
		cfg.Output.Lossless = true
	}
	if v.debug {
		cfg.Logging.Development = true
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
