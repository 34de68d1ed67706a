// Package detector infers the width of whitespace gutters separating
// grid cells by scanning a downscaled sample of the source image.
package detector

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/menta2k/grid-splitter/pkg/sampler"
	"github.com/menta2k/grid-splitter/pkg/types"
)

// scanOffsets are the relative positions of the three scan lines taken
// in each direction.
var scanOffsets = [3]float64{0.1, 0.5, 0.9}

// maxGapFraction rejects white runs at or above this fraction of the
// scanned dimension; such runs are the image's own background, not a
// gutter.
const maxGapFraction = 0.2

// Detect estimates the gutter width of img in source pixels. The result
// is deterministic for identical pixel content. SizePx == 0 means no
// gutter was found; Detected is always true on success. Detect fails
// only when the sample surface cannot be allocated.
func Detect(img image.Image) (types.GutterEstimate, error) {
	s, err := sampler.Build(img)
	if err != nil {
		return types.GutterEstimate{}, err
	}

	var gaps []int

	// Vertical gutters: horizontal scan lines.
	for _, off := range scanOffsets {
		y := scanCoord(off, s.Height())
		gaps = append(gaps, scanLine(s.Width(), func(x int) bool {
			return s.IsWhite(x, y)
		})...)
	}

	// Horizontal gutters: vertical scan lines.
	for _, off := range scanOffsets {
		x := scanCoord(off, s.Width())
		gaps = append(gaps, scanLine(s.Height(), func(y int) bool {
			return s.IsWhite(x, y)
		})...)
	}

	if len(gaps) == 0 {
		return types.GutterEstimate{SizePx: 0, Detected: true}, nil
	}

	raw := selectGap(gaps)
	return types.GutterEstimate{
		SizePx:   int(math.Round(float64(raw) / s.Scale)),
		Detected: true,
	}, nil
}

func scanCoord(off float64, dim int) int {
	c := int(off * float64(dim))
	if c >= dim {
		c = dim - 1
	}
	return c
}

// scanLine walks one scan line of length n and returns the lengths of
// candidate gaps: contiguous white runs bounded by non-white pixels on
// both sides. Runs touching either end of the line never close and are
// dropped, as are runs at or above maxGapFraction of the line.
func scanLine(n int, white func(int) bool) []int {
	var gaps []int
	runStart := -1
	for i := 0; i < n; i++ {
		if white(i) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart > 0 { // runStart == 0 has no non-white pixel before it
			length := i - runStart
			if length >= 1 && float64(length) < maxGapFraction*float64(n) {
				gaps = append(gaps, length)
			}
		}
		runStart = -1
	}
	return gaps
}

// selectGap picks the most probable gutter width from the candidate
// multiset. Candidates are tallied in buckets of the nearest multiple
// of 2, which absorbs scaling rounding noise; ties between buckets
// resolve to the smallest. The returned value is the smallest observed
// run length in the winning bucket, so a true 15px gutter reports 15
// rather than its 16px bucket key.
func selectGap(gaps []int) int {
	quantized := make([]float64, len(gaps))
	for i, g := range gaps {
		quantized[i] = float64(quantize(g))
	}
	sort.Float64s(quantized)

	// stat.Mode may return any of the tied values, so only its count is
	// used; the winning bucket is the first run of that length in the
	// sorted slice, which keeps ties on the smallest bucket.
	_, count := stat.Mode(quantized, nil)
	bucket := int(quantized[0])
	for i := 0; i < len(quantized); {
		j := i
		for j < len(quantized) && quantized[j] == quantized[i] {
			j++
		}
		if float64(j-i) == count {
			bucket = int(quantized[i])
			break
		}
		i = j
	}

	best := -1
	for _, g := range gaps {
		if quantize(g) == bucket && (best < 0 || g < best) {
			best = g
		}
	}
	return best
}

func quantize(g int) int {
	return int(math.Round(float64(g)/2)) * 2
}
