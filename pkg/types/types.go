package types

import "image"

// GridConfig defines how a source image is divided into cells.
type GridConfig struct {
	Columns int `json:"columns" yaml:"columns"`
	Rows    int `json:"rows" yaml:"rows"`
	// Padding is the gutter width in source pixels between adjacent cells.
	Padding int `json:"padding" yaml:"padding"`
}

// GutterEstimate is the result of automatic gutter detection.
// SizePx == 0 with Detected == true means the image has no internal
// gutter; Detected == false means detection was never run.
type GutterEstimate struct {
	SizePx   int  `json:"size_px"`
	Detected bool `json:"detected"`
}

// CellRect is a cell's source rectangle in source-image pixel
// coordinates. Coordinates are float64 because cell sizes stay exactly
// uniform even when the image dimensions do not divide evenly.
type CellRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Cell is one rendered grid cell. Index is row-major:
// index = Row*columns + Col.
type Cell struct {
	Index int
	Row   int
	Col   int
	Rect  CellRect

	// Image is the rendered cell raster. Data holds the PNG encoding
	// once EncodePNG has run; nil until then.
	Image *image.NRGBA
	Data  []byte
}

// Width returns the rendered cell width in pixels.
func (c Cell) Width() int {
	if c.Image == nil {
		return 0
	}
	return c.Image.Bounds().Dx()
}

// Height returns the rendered cell height in pixels.
func (c Cell) Height() int {
	if c.Image == nil {
		return 0
	}
	return c.Image.Bounds().Dy()
}
