package sampler

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// MaxScanDimension bounds the long side of the sample buffer. Gutters
// are wide relative to 900px whenever they exist, so scanning a capped
// copy does not materially affect the estimate.
const MaxScanDimension = 900

// WhiteThreshold is the minimum per-channel value (out of 255) for a
// pixel to count as white.
const WhiteThreshold = 250

// ErrSurface indicates the sample buffer could not be allocated or drawn.
var ErrSurface = errors.New("sampler: cannot create sample surface")

// Sample is a bounded-resolution NRGBA copy of a source image with
// per-pixel whiteness queries for gutter scanning. It is never used for
// final cell rendering.
type Sample struct {
	pix    *image.NRGBA
	width  int
	height int

	// Scale is the sample-to-source ratio; divide a sample-space length
	// by Scale to get back to source pixels.
	Scale float64
}

// Build draws a possibly downscaled copy of img into an off-screen
// NRGBA buffer. Downscaling uses nearest-neighbor resampling so gutter
// edges stay high-contrast instead of blurring into non-white values.
func Build(img image.Image) (*Sample, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil source image", ErrSurface)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty source image %dx%d", ErrSurface, w, h)
	}

	scale := 1.0
	if m := max(w, h); m > MaxScanDimension {
		scale = float64(MaxScanDimension) / float64(m)
	}

	var pix *image.NRGBA
	if scale == 1.0 {
		pix = imaging.Clone(img)
	} else {
		sw := int(math.Round(float64(w) * scale))
		sh := int(math.Round(float64(h) * scale))
		pix = imaging.Resize(img, sw, sh, imaging.NearestNeighbor)
	}
	if pix == nil || pix.Bounds().Empty() {
		return nil, fmt.Errorf("%w: resize produced empty buffer", ErrSurface)
	}

	return &Sample{
		pix:    pix,
		width:  pix.Bounds().Dx(),
		height: pix.Bounds().Dy(),
		Scale:  scale,
	}, nil
}

// Width returns the sample buffer width in pixels.
func (s *Sample) Width() int { return s.width }

// Height returns the sample buffer height in pixels.
func (s *Sample) Height() int { return s.height }

// IsWhite reports whether the sampled pixel at (x, y) is white: each of
// R, G, B at least WhiteThreshold. Coordinates outside the sample are
// white, which lets gutters register at image edges too. Alpha is
// ignored.
func (s *Sample) IsWhite(x, y int) bool {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return true
	}
	i := y*s.pix.Stride + x*4
	return s.pix.Pix[i] >= WhiteThreshold &&
		s.pix.Pix[i+1] >= WhiteThreshold &&
		s.pix.Pix[i+2] >= WhiteThreshold
}
