// Package gridsplitter splits a single raster image into a rectangular
// grid of sub-images, optionally compensating for uniform whitespace
// gutters between cells.
//
// The work happens in three stages. A bounded-resolution sample of the
// image is scanned to infer the gutter width (pkg/detector), the image
// is partitioned into exact, gutter-aware cell rectangles and each cell
// rendered to an independent image (pkg/partitioner), and both
// algorithms run on dedicated worker goroutines behind a typed
// request/response protocol with ownership-transferring image handles
// (pkg/host), so callers never block their own goroutine on pixel
// scanning or per-cell rendering.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		gridsplitter "github.com/menta2k/grid-splitter"
//		"github.com/menta2k/grid-splitter/pkg/types"
//	)
//
//	func main() {
//		splitter, err := gridsplitter.New(nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer splitter.Close()
//
//		img, err := splitter.LoadImage("sheet.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		cfg := types.GridConfig{Columns: 3, Rows: 3}
//		cells, estimate, err := splitter.Split(context.Background(), img, cfg, true)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("gutter %dpx, %d cells", estimate.SizePx, len(cells))
//	}
//
// The detector and partitioner are stateless pure functions and can be
// called directly when offloading is not wanted:
//
//	estimate, err := detector.Detect(img)
//	cells, err := partitioner.Partition(img, cfg)
package gridsplitter

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/menta2k/grid-splitter/pkg/export"
	"github.com/menta2k/grid-splitter/pkg/host"
	"github.com/menta2k/grid-splitter/pkg/loader"
	"github.com/menta2k/grid-splitter/pkg/types"
)

// Version of the grid splitter library
const Version = "1.0.0"

// Splitter is the high-level interface combining image loading, the
// execution host, and cell export.
type Splitter struct {
	host *host.Host
	log  *zap.Logger
}

// New creates a Splitter and starts its execution host. A nil logger
// disables logging. Returns host.ErrCapability when the environment
// cannot provide off-screen rendering surfaces; there is no silent
// fallback to in-goroutine execution.
func New(log *zap.Logger) (*Splitter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h, err := host.New(log)
	if err != nil {
		return nil, err
	}
	return &Splitter{host: h, log: log}, nil
}

// Close shuts down the execution host.
func (s *Splitter) Close() {
	s.host.Close()
}

// LoadImage loads an image from a file path or http(s) URL.
func (s *Splitter) LoadImage(source string) (image.Image, error) {
	return loader.Load(source)
}

// DetectGutter estimates the gutter width of img on the detection
// worker.
func (s *Splitter) DetectGutter(ctx context.Context, img image.Image) (types.GutterEstimate, error) {
	return s.host.DetectPadding(ctx, host.NewImageHandle(img))
}

// Split partitions img into cfg.Columns*cfg.Rows cells in row-major
// order. When autoDetect is set, the gutter width is detected first and
// overrides cfg.Padding; the estimate actually used is returned either
// way. Detection and partitioning are sequenced explicitly: detect
// first, then crop with the detected value.
func (s *Splitter) Split(ctx context.Context, img image.Image, cfg types.GridConfig, autoDetect bool) ([]types.Cell, types.GutterEstimate, error) {
	estimate := types.GutterEstimate{SizePx: cfg.Padding, Detected: false}

	if autoDetect {
		est, err := s.host.DetectPadding(ctx, host.NewImageHandle(img))
		if err != nil {
			return nil, types.GutterEstimate{}, fmt.Errorf("gutter detection failed: %w", err)
		}
		estimate = est
		cfg.Padding = est.SizePx
	}

	cells, err := s.host.CropImage(ctx, host.NewImageHandle(img), cfg)
	if err != nil {
		return nil, estimate, fmt.Errorf("partitioning failed: %w", err)
	}
	return cells, estimate, nil
}

// SplitFile loads source, splits it, and writes the cells into outDir.
// Returns the written file paths in row-major order together with the
// gutter estimate used.
func (s *Splitter) SplitFile(ctx context.Context, source, outDir string, cfg types.GridConfig, autoDetect bool, opts export.Options) ([]string, types.GutterEstimate, error) {
	img, err := s.LoadImage(source)
	if err != nil {
		return nil, types.GutterEstimate{}, fmt.Errorf("failed to load image: %w", err)
	}

	cells, estimate, err := s.Split(ctx, img, cfg, autoDetect)
	if err != nil {
		return nil, estimate, err
	}

	paths, err := export.WriteCells(cells, outDir, opts)
	if err != nil {
		return nil, estimate, err
	}
	return paths, estimate, nil
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
