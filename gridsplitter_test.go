package gridsplitter

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/grid-splitter/pkg/export"
	"github.com/menta2k/grid-splitter/pkg/types"
)

// sheetImage is a 300x300 3x3 grid with 15px gutters between tiles.
func sheetImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	white := color.RGBA{255, 255, 255, 255}
	dark := color.RGBA{40, 40, 40, 255}
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, white)
		}
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			for y := row * 105; y < row*105+90; y++ {
				for x := col * 105; x < col*105+90; x++ {
					img.Set(x, y, dark)
				}
			}
		}
	}
	return img
}

func newSplitter(t *testing.T) *Splitter {
	t.Helper()
	s, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSplitWithAutoDetect(t *testing.T) {
	s := newSplitter(t)

	cells, estimate, err := s.Split(context.Background(), sheetImage(), types.GridConfig{Columns: 3, Rows: 3}, true)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !estimate.Detected {
		t.Error("expected a detected estimate")
	}
	if estimate.SizePx != 15 {
		t.Errorf("expected detected gutter 15, got %d", estimate.SizePx)
	}
	if len(cells) != 9 {
		t.Fatalf("expected 9 cells, got %d", len(cells))
	}
	for i, c := range cells {
		if c.Index != i {
			t.Errorf("cell %d out of order", i)
		}
		if c.Width() != 90 || c.Height() != 90 {
			t.Errorf("cell %d is %dx%d, want 90x90", i, c.Width(), c.Height())
		}
	}
}

func TestSplitWithoutAutoDetect(t *testing.T) {
	s := newSplitter(t)

	cells, estimate, err := s.Split(context.Background(), sheetImage(), types.GridConfig{Columns: 2, Rows: 2, Padding: 0}, false)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if estimate.Detected {
		t.Error("estimate must not be marked detected when detection was not requested")
	}
	if len(cells) != 4 {
		t.Errorf("expected 4 cells, got %d", len(cells))
	}
	if cells[0].Width() != 150 || cells[0].Height() != 150 {
		t.Errorf("cell 0 is %dx%d, want 150x150", cells[0].Width(), cells[0].Height())
	}
}

func TestSplitInvalidConfig(t *testing.T) {
	s := newSplitter(t)

	_, _, err := s.Split(context.Background(), sheetImage(), types.GridConfig{Columns: 3, Rows: 3, Padding: 200}, false)
	if err == nil {
		t.Error("expected configuration error")
	}
}

func TestSplitFile(t *testing.T) {
	s := newSplitter(t)
	dir := t.TempDir()

	// Write the source image first.
	src := filepath.Join(dir, "sheet.png")
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := export.Encode(f, sheetImage(), "png", 90, false); err != nil {
		f.Close()
		t.Fatal(err)
	}
	f.Close()

	outDir := filepath.Join(dir, "cells")
	paths, estimate, err := s.SplitFile(context.Background(), src, outDir, types.GridConfig{Columns: 3, Rows: 3}, true, export.Options{})
	if err != nil {
		t.Fatalf("SplitFile failed: %v", err)
	}
	if estimate.SizePx != 15 {
		t.Errorf("expected detected gutter 15, got %d", estimate.SizePx)
	}
	if len(paths) != 9 {
		t.Fatalf("expected 9 files, got %d", len(paths))
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("missing or empty output %s", p)
		}
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Error("GetVersion must return Version")
	}
}
