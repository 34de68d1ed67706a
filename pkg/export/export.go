// Package export writes rendered grid cells to individual files or a
// ZIP archive. Output order and naming follow the row-major cell index,
// which downstream naming depends on.
package export

import (
	"archive/zip"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/grid-splitter/internal/utils"
	"github.com/menta2k/grid-splitter/pkg/types"
)

// Options controls the encoding of exported cells.
type Options struct {
	// Format is png, jpg, or webp. Defaults to png.
	Format   string
	Quality  int
	Lossless bool
	// Prefix is the base name each cell filename starts with.
	// Defaults to "cell".
	Prefix string
}

func (o Options) normalized() Options {
	if o.Format == "" {
		o.Format = "png"
	}
	o.Format = strings.ToLower(o.Format)
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 90
	}
	if o.Prefix == "" {
		o.Prefix = "cell"
	}
	o.Prefix = utils.SanitizeFilename(o.Prefix)
	return o
}

// CellName returns the filename of one cell under the given options.
func CellName(c types.Cell, opts Options) string {
	opts = opts.normalized()
	return fmt.Sprintf("%s_r%dc%d.%s", opts.Prefix, c.Row, c.Col, opts.Format)
}

// WriteCells saves every cell into dir and returns the written paths in
// cell order. The directory is created if needed.
func WriteCells(cells []types.Cell, dir string, opts Options) ([]string, error) {
	opts = opts.normalized()
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("export: cannot create output dir: %w", err)
	}

	paths := make([]string, 0, len(cells))
	for _, c := range cells {
		path := filepath.Join(dir, CellName(c, opts))
		if err := writeCell(c, path, opts); err != nil {
			return nil, fmt.Errorf("export: cell %d: %w", c.Index, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteArchive assembles all cells into a single ZIP stream, entries in
// cell order.
func WriteArchive(cells []types.Cell, w io.Writer, opts Options) error {
	opts = opts.normalized()
	zw := zip.NewWriter(w)
	for _, c := range cells {
		entry, err := zw.Create(CellName(c, opts))
		if err != nil {
			return fmt.Errorf("export: archive entry for cell %d: %w", c.Index, err)
		}
		if err := encodeCell(c, entry, opts); err != nil {
			return fmt.Errorf("export: cell %d: %w", c.Index, err)
		}
	}
	return zw.Close()
}

// WriteArchiveFile is WriteArchive targeting a file path.
func WriteArchiveFile(cells []types.Cell, path string, opts Options) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("export: cannot create archive dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: cannot create archive: %w", err)
	}
	defer f.Close()
	return WriteArchive(cells, f, opts)
}

func writeCell(c types.Cell, path string, opts Options) error {
	// Pre-encoded PNG data is written verbatim so file output matches
	// the host's in-memory result byte for byte.
	if opts.Format == "png" && c.Data != nil {
		return os.WriteFile(path, c.Data, 0o644)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeCell(c, f, opts)
}

func encodeCell(c types.Cell, w io.Writer, opts Options) error {
	if opts.Format == "png" && c.Data != nil {
		_, err := w.Write(c.Data)
		return err
	}
	if c.Image == nil {
		return fmt.Errorf("cell has no rendered image")
	}
	return Encode(w, c.Image, opts.Format, opts.Quality, opts.Lossless)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "jpg", "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
