package locator

import (
	"image"
	"testing"
)

// noiseGray builds a deterministic pseudo-random grayscale image so that no
// two windows correlate by accident.
func noiseGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint32(x*73856093) ^ uint32(y*19349663)
			img.Pix[y*img.Stride+x] = byte(v>>8) ^ byte(v)
		}
	}
	return img
}

// crop copies a region into a fresh zero-origin gray image.
func crop(src *image.Gray, x, y, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			out.Pix[dy*out.Stride+dx] = src.Pix[(y+dy)*src.Stride+x+dx]
		}
	}
	return out
}

func TestCrossCorrelationSelfMatch(t *testing.T) {
	frame := noiseGray(80, 60)
	tpl := crop(frame, 25, 17, 16, 12)

	score, loc := CrossCorrelation{}.Score(frame, tpl)

	if score < 0.999 {
		t.Errorf("score = %f, want near-maximal for exact match", score)
	}
	if loc != (image.Point{X: 25, Y: 17}) {
		t.Errorf("loc = %v, want {25 17}", loc)
	}
}

func TestCrossCorrelationConstantTemplate(t *testing.T) {
	frame := noiseGray(40, 40)
	tpl := image.NewGray(image.Rect(0, 0, 8, 8)) // all zeros, no signal

	score, _ := CrossCorrelation{}.Score(frame, tpl)
	if score != 0 {
		t.Errorf("score = %f, want 0 for constant template", score)
	}
}

func TestSquaredDifferenceSelfMatch(t *testing.T) {
	frame := noiseGray(64, 48)
	tpl := crop(frame, 10, 30, 12, 10)

	score, loc := SquaredDifference{}.Score(frame, tpl)

	if score < 0.999 {
		t.Errorf("score = %f, want 1 for exact match", score)
	}
	if loc != (image.Point{X: 10, Y: 30}) {
		t.Errorf("loc = %v, want {10 30}", loc)
	}
}

func TestSquaredDifferenceIsNormalizedHigherBetter(t *testing.T) {
	frame := noiseGray(40, 40)
	present := crop(frame, 5, 5, 10, 10)
	absent := noiseGray(10, 10)
	for i := range absent.Pix {
		absent.Pix[i] ^= 0xAA // decorrelate from the frame
	}

	presentScore, _ := SquaredDifference{}.Score(frame, present)
	absentScore, _ := SquaredDifference{}.Score(frame, absent)

	if presentScore <= absentScore {
		t.Errorf("present score %f should exceed absent score %f", presentScore, absentScore)
	}
	for _, s := range []float64{presentScore, absentScore} {
		if s < 0 || s > 1 {
			t.Errorf("score %f outside [0,1]", s)
		}
	}
}

func TestPerceptionGridSelfMatch(t *testing.T) {
	frame := noiseGray(64, 64)
	// Template aligned to the scan grid so the exact window is visited.
	tpl := crop(frame, 0, 0, 16, 16)

	score, loc := PerceptionGrid{}.Score(frame, tpl)

	if score < 0.9 {
		t.Errorf("score = %f, want >= 0.9 for exact aligned match", score)
	}
	if loc != (image.Point{X: 0, Y: 0}) {
		t.Errorf("loc = %v, want {0 0}", loc)
	}
}

func TestIntegralImageWindowSum(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = byte(i + 1) // 1..12
	}
	sum, _ := integralImages(img)

	// Window (1,1) size 2x2 covers values 6,7,10,11.
	if got := windowSum(sum, 4, 1, 1, 2, 2); got != 34 {
		t.Errorf("windowSum = %f, want 34", got)
	}
	// Full image.
	if got := windowSum(sum, 4, 0, 0, 4, 3); got != 78 {
		t.Errorf("full windowSum = %f, want 78", got)
	}
}
