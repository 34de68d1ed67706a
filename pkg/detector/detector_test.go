package detector

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
)

// gridImage builds a cols x rows sheet of dark tiles separated (and
// bordered) by pure-white gutters of the given width.
func gridImage(cols, rows, tile, gutter int) image.Image {
	w := cols*tile + (cols+1)*gutter
	h := rows*tile + (rows+1)*gutter
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	white := color.RGBA{255, 255, 255, 255}
	dark := color.RGBA{40, 40, 40, 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, white)
		}
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			ox := gutter + col*(tile+gutter)
			oy := gutter + row*(tile+gutter)
			for y := oy; y < oy+tile; y++ {
				for x := ox; x < ox+tile; x++ {
					img.Set(x, y, dark)
				}
			}
		}
	}
	return img
}

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDetectScenario3x3(t *testing.T) {
	// Nine 90x90 tiles with 15px gutters and a 15px border.
	est, err := Detect(gridImage(3, 3, 90, 15))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !est.Detected {
		t.Error("expected Detected to be true")
	}
	if est.SizePx != 15 {
		t.Errorf("expected gutter 15, got %d", est.SizePx)
	}
}

func TestDetectDownscaledImage(t *testing.T) {
	// 1800x1800 forces a 0.5 scan scale; the 30px gutter must still
	// come back in source pixels.
	est, err := Detect(gridImage(3, 3, 560, 30))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if est.SizePx != 30 {
		t.Errorf("expected gutter 30, got %d", est.SizePx)
	}
}

func TestDetectNonIntegralScale(t *testing.T) {
	// 1850x1850 samples at 900/1850, so the 25px gutter lands on a
	// fractional number of sample pixels and the nearest-neighbor runs
	// jitter by one. The scaled-back estimate must stay within one
	// sample pixel of the true width.
	img := gridImage(5, 5, 340, 25)
	scale := 900.0 / 1850.0

	est, err := Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	tolerance := int(math.Round(1 / scale))
	if diff := est.SizePx - 25; diff < -tolerance || diff > tolerance {
		t.Errorf("expected gutter within %d of 25, got %d", tolerance, est.SizePx)
	}
}

func TestDetectNoGutter(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"solid dark", solidImage(200, 200, color.RGBA{40, 40, 40, 255})},
		{"solid white", solidImage(200, 200, color.RGBA{255, 255, 255, 255})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := Detect(tt.img)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if !est.Detected {
				t.Error("expected Detected to be true")
			}
			if est.SizePx != 0 {
				t.Errorf("expected gutter 0, got %d", est.SizePx)
			}
		})
	}
}

func TestDetectRejectsWideGaps(t *testing.T) {
	// A white band spanning 25% of the width is background, not a
	// gutter.
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	dark := color.RGBA{40, 40, 40, 255}
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if x >= 75 && x < 125 {
				img.Set(x, y, white)
			} else {
				img.Set(x, y, dark)
			}
		}
	}

	est, err := Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if est.SizePx != 0 {
		t.Errorf("expected 0 for background-wide gap, got %d", est.SizePx)
	}
}

func TestScanLine(t *testing.T) {
	line := func(pattern string) func(int) bool {
		return func(i int) bool { return pattern[i] == 'w' }
	}

	pad := strings.Repeat("b", 30)
	tests := []struct {
		name    string
		pattern string
		want    []int
	}{
		{"single closed run", "bb" + "www" + pad, []int{3}},
		{"two runs", "b" + "ww" + "bb" + "w" + pad, []int{2, 1}},
		{"run touching left edge dropped", "ww" + pad, nil},
		{"run touching right edge dropped", pad + "ww", nil},
		{"all white never closes", strings.Repeat("w", 32), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanLine(len(tt.pattern), line(tt.pattern))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("gap %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanLineRejectsWideRuns(t *testing.T) {
	// 30 white pixels in a 100-long line is 30% and must be rejected.
	white := func(i int) bool { return i >= 10 && i < 40 }
	if got := scanLine(100, white); len(got) != 0 {
		t.Errorf("expected wide run rejected, got %v", got)
	}
	// 19 pixels is under the 20% cutoff.
	white = func(i int) bool { return i >= 10 && i < 29 }
	got := scanLine(100, white)
	if len(got) != 1 || got[0] != 19 {
		t.Errorf("expected [19], got %v", got)
	}
}

func TestSelectGap(t *testing.T) {
	tests := []struct {
		name string
		gaps []int
		want int
	}{
		{"clear mode", []int{15, 15, 15, 8}, 15},
		{"reports observed length not bucket", []int{15, 15}, 15},
		{"tie resolves to smallest bucket", []int{8, 8, 20, 20}, 8},
		{"smallest raw value in winning bucket", []int{16, 15, 15, 16}, 15},
		{"single candidate", []int{7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectGap(tt.gaps); got != tt.want {
				t.Errorf("selectGap(%v) = %d, want %d", tt.gaps, got, tt.want)
			}
		})
	}
}

func TestSelectGapTieIsStable(t *testing.T) {
	// Tied buckets must resolve the same way on every call; the result
	// may never depend on map iteration order.
	for i := 0; i < 500; i++ {
		if got := selectGap([]int{8, 8, 20, 20}); got != 8 {
			t.Fatalf("iteration %d: selectGap = %d, want 8", i, got)
		}
		if got := selectGap([]int{20, 20, 8, 8}); got != 8 {
			t.Fatalf("iteration %d: candidate order changed the winner, got %d", i, got)
		}
	}
}

func BenchmarkDetect(b *testing.B) {
	img := gridImage(4, 4, 200, 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Detect(img)
	}
}
