// Package locator finds a reference image inside live screen frames using
// template matching with a configurable, ordered set of strategies.
package locator

import (
	"image"
	"math"
)

// Strategy scores the best placement of a template inside a frame. Scores are
// normalized to [0,1] with higher meaning more similar, regardless of the
// method's native convention, so strategies compare on one scale.
type Strategy interface {
	Name() string
	Score(frame, template *image.Gray) (float64, image.Point)
}

// CrossCorrelation is zero-mean normalized cross-correlation. An exact pixel
// match scores 1.0; uncorrelated regions score near 0.
type CrossCorrelation struct{}

func (CrossCorrelation) Name() string { return "ccoeff" }

func (CrossCorrelation) Score(frame, template *image.Gray) (float64, image.Point) {
	fw, fh := frame.Rect.Dx(), frame.Rect.Dy()
	tw, th := template.Rect.Dx(), template.Rect.Dy()
	n := float64(tw * th)

	// Zero-mean template and its norm, computed once.
	tpl := make([]float64, tw*th)
	var tSum float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tpl[y*tw+x] = float64(template.GrayAt(template.Rect.Min.X+x, template.Rect.Min.Y+y).Y)
			tSum += tpl[y*tw+x]
		}
	}
	tMean := tSum / n
	var tNorm float64
	for i := range tpl {
		tpl[i] -= tMean
		tNorm += tpl[i] * tpl[i]
	}
	if tNorm == 0 {
		// Constant template carries no signal for correlation.
		return 0, image.Point{}
	}

	sum, sumSq := integralImages(frame)

	best := math.Inf(-1)
	var bestLoc image.Point
	for v := 0; v+th <= fh; v++ {
		for u := 0; u+tw <= fw; u++ {
			var dot float64
			for y := 0; y < th; y++ {
				row := frame.Pix[(v+y)*frame.Stride+u:]
				trow := tpl[y*tw:]
				for x := 0; x < tw; x++ {
					dot += trow[x] * float64(row[x])
				}
			}
			// Σ t'·(f-f̄) reduces to Σ t'·f because Σ t' = 0.
			s := windowSum(sum, fw, u, v, tw, th)
			sq := windowSum(sumSq, fw, u, v, tw, th)
			fVar := sq - s*s/n
			if fVar <= 0 {
				continue
			}
			score := dot / math.Sqrt(tNorm*fVar)
			if score > best {
				best = score
				bestLoc = image.Point{X: u, Y: v}
			}
		}
	}
	if math.IsInf(best, -1) {
		return 0, image.Point{}
	}
	return clamp01(best), bestLoc
}

// SquaredDifference is normalized sum of squared differences. Natively lower
// is better; the score is inverted to the shared higher-is-better scale.
type SquaredDifference struct{}

func (SquaredDifference) Name() string { return "sqdiff" }

func (SquaredDifference) Score(frame, template *image.Gray) (float64, image.Point) {
	fw, fh := frame.Rect.Dx(), frame.Rect.Dy()
	tw, th := template.Rect.Dx(), template.Rect.Dy()

	tpl := make([]float64, tw*th)
	var tSq float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tpl[y*tw+x] = float64(template.GrayAt(template.Rect.Min.X+x, template.Rect.Min.Y+y).Y)
			tSq += tpl[y*tw+x] * tpl[y*tw+x]
		}
	}

	_, sumSq := integralImages(frame)

	best := math.Inf(1)
	var bestLoc image.Point
	for v := 0; v+th <= fh; v++ {
		for u := 0; u+tw <= fw; u++ {
			var dot float64
			for y := 0; y < th; y++ {
				row := frame.Pix[(v+y)*frame.Stride+u:]
				trow := tpl[y*tw:]
				for x := 0; x < tw; x++ {
					dot += trow[x] * float64(row[x])
				}
			}
			fSq := windowSum(sumSq, fw, u, v, tw, th)
			denom := math.Sqrt(tSq * fSq)
			if denom == 0 {
				continue
			}
			// Σ(t-f)² = Σt² - 2Σtf + Σf², normalized by √(Σt²·Σf²).
			r := (tSq - 2*dot + fSq) / denom
			if r < best {
				best = r
				bestLoc = image.Point{X: u, Y: v}
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0, image.Point{}
	}
	return clamp01(1 - best), bestLoc
}

// integralImages returns summed-area tables of pixel values and squares, each
// sized (w+1)*(h+1) with a zero first row and column.
func integralImages(img *image.Gray) (sum, sumSq []float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	sum = make([]float64, (w+1)*(h+1))
	sumSq = make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			p := float64(img.Pix[y*img.Stride+x])
			rowSum += p
			rowSq += p * p
			sum[(y+1)*(w+1)+x+1] = sum[y*(w+1)+x+1] + rowSum
			sumSq[(y+1)*(w+1)+x+1] = sumSq[y*(w+1)+x+1] + rowSq
		}
	}
	return sum, sumSq
}

// windowSum evaluates a summed-area table over the window at (u,v) sized tw*th.
func windowSum(table []float64, fw, u, v, tw, th int) float64 {
	s := fw + 1
	return table[(v+th)*s+u+tw] - table[v*s+u+tw] - table[(v+th)*s+u] + table[v*s+u]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
