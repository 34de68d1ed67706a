// Package partitioner divides a source image into a rectangular grid of
// gutter-aware cells and renders each cell to an independent image.
package partitioner

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/grid-splitter/pkg/types"
)

// ErrInvalidGrid indicates a GridConfig that yields a non-positive cell
// size. The configuration is rejected, never clamped.
var ErrInvalidGrid = errors.New("partitioner: invalid grid configuration")

// ErrRender indicates a failure while rendering or encoding a cell.
var ErrRender = errors.New("partitioner: cell render failed")

// Rects computes the source rectangle of every cell for an image of the
// given dimensions. Cells are returned in row-major order:
// index = row*columns + col. Cell sizes may be fractional; they are
// exactly uniform across the grid.
func Rects(width, height int, cfg types.GridConfig) ([]types.CellRect, error) {
	cellW, cellH, err := cellSize(width, height, cfg)
	if err != nil {
		return nil, err
	}

	p := float64(cfg.Padding)
	rects := make([]types.CellRect, 0, cfg.Columns*cfg.Rows)
	for i := 0; i < cfg.Columns*cfg.Rows; i++ {
		col := i % cfg.Columns
		row := i / cfg.Columns
		rects = append(rects, types.CellRect{
			X:      float64(col) * (cellW + p),
			Y:      float64(row) * (cellH + p),
			Width:  cellW,
			Height: cellH,
		})
	}
	return rects, nil
}

// Partition renders every cell of the grid to its own image. The result
// has exactly cfg.Columns*cfg.Rows cells in row-major order; the source
// image is only read, never mutated. Call EncodePNG on the result to
// fill in the encoded bytes.
func Partition(img image.Image, cfg types.GridConfig) ([]types.Cell, error) {
	b := img.Bounds()
	rects, err := Rects(b.Dx(), b.Dy(), cfg)
	if err != nil {
		return nil, err
	}

	// Clone once so pixel access is uniform and bounds start at the
	// origin regardless of the decoded representation.
	src := imaging.Clone(img)

	cells := make([]types.Cell, 0, len(rects))
	for i, r := range rects {
		rendered, err := render(src, r)
		if err != nil {
			return nil, err
		}
		cells = append(cells, types.Cell{
			Index: i,
			Row:   i / cfg.Columns,
			Col:   i % cfg.Columns,
			Rect:  r,
			Image: rendered,
		})
	}
	return cells, nil
}

// EncodePNG encodes every cell to PNG in place. Encoding is
// deterministic: identical inputs produce byte-identical output.
func EncodePNG(cells []types.Cell) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	for i := range cells {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, cells[i].Image); err != nil {
			return fmt.Errorf("%w: cell %d: %v", ErrRender, i, err)
		}
		cells[i].Data = buf.Bytes()
	}
	return nil
}

func cellSize(width, height int, cfg types.GridConfig) (float64, float64, error) {
	if cfg.Columns < 1 || cfg.Rows < 1 {
		return 0, 0, fmt.Errorf("%w: columns=%d rows=%d, both must be >= 1",
			ErrInvalidGrid, cfg.Columns, cfg.Rows)
	}
	if cfg.Padding < 0 {
		return 0, 0, fmt.Errorf("%w: padding=%d must be >= 0", ErrInvalidGrid, cfg.Padding)
	}

	cellW := (float64(width) - float64(cfg.Padding*(cfg.Columns-1))) / float64(cfg.Columns)
	cellH := (float64(height) - float64(cfg.Padding*(cfg.Rows-1))) / float64(cfg.Rows)
	if cellW <= 0 {
		return 0, 0, fmt.Errorf("%w: cell width %.2f <= 0 (width=%d columns=%d padding=%d)",
			ErrInvalidGrid, cellW, width, cfg.Columns, cfg.Padding)
	}
	if cellH <= 0 {
		return 0, 0, fmt.Errorf("%w: cell height %.2f <= 0 (height=%d rows=%d padding=%d)",
			ErrInvalidGrid, cellH, height, cfg.Rows, cfg.Padding)
	}
	return cellW, cellH, nil
}

// render copies exactly the source rectangle r into a freshly sized
// output surface. Integral rectangles are cut directly; fractional ones
// are sampled through a sub-pixel translation so every cell in the grid
// keeps the identical output size.
func render(src *image.NRGBA, r types.CellRect) (*image.NRGBA, error) {
	outW := int(math.Round(r.Width))
	outH := int(math.Round(r.Height))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	if integral(r.X) && integral(r.Y) && integral(r.Width) && integral(r.Height) {
		rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
		return imaging.Crop(src, rect), nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	if dst == nil {
		return nil, fmt.Errorf("%w: cannot allocate %dx%d surface", ErrRender, outW, outH)
	}
	// Center the integral output window on the fractional source rect
	// so every sample center stays inside the source, then translate it
	// onto the destination origin; nearest-neighbor keeps cell content
	// sharp.
	tx := r.X + (r.Width-float64(outW))/2
	ty := r.Y + (r.Height-float64(outH))/2
	m := f64.Aff3{
		1, 0, -tx,
		0, 1, -ty,
	}
	xdraw.NearestNeighbor.Transform(dst, m, src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

func integral(v float64) bool {
	return v == math.Trunc(v)
}
