package locator

import (
	"image"

	"github.com/corona10/goimagehash"
)

// phashBits is the size of a perception hash in bits.
const phashBits = 64

// PerceptionGrid slides a template-sized window across the frame on a coarse
// grid and compares perceptual hashes. It tolerates rendering differences
// (anti-aliasing, slight color shifts) that defeat pixelwise methods, at the
// cost of coarse localization.
type PerceptionGrid struct{}

func (PerceptionGrid) Name() string { return "phash" }

func (PerceptionGrid) Score(frame, template *image.Gray) (float64, image.Point) {
	fw, fh := frame.Rect.Dx(), frame.Rect.Dy()
	tw, th := template.Rect.Dx(), template.Rect.Dy()

	tplHash, err := goimagehash.PerceptionHash(template)
	if err != nil {
		return 0, image.Point{}
	}

	stride := min(tw, th) / 2
	if stride < 1 {
		stride = 1
	}

	best := -1.0
	var bestLoc image.Point
	for v := 0; v+th <= fh; v += stride {
		for u := 0; u+tw <= fw; u += stride {
			score := windowScore(frame, tplHash, u, v, tw, th)
			if score > best {
				best = score
				bestLoc = image.Point{X: u, Y: v}
			}
		}
		// Always test the right edge so a match flush against it is reachable.
		if u := fw - tw; u%stride != 0 {
			if score := windowScore(frame, tplHash, u, v, tw, th); score > best {
				best = score
				bestLoc = image.Point{X: u, Y: v}
			}
		}
	}
	if v := fh - th; v%stride != 0 {
		for u := 0; u+tw <= fw; u += stride {
			if score := windowScore(frame, tplHash, u, v, tw, th); score > best {
				best = score
				bestLoc = image.Point{X: u, Y: v}
			}
		}
	}

	if best < 0 {
		return 0, image.Point{}
	}
	return best, bestLoc
}

func windowScore(frame *image.Gray, tplHash *goimagehash.ImageHash, u, v, tw, th int) float64 {
	window := frame.SubImage(image.Rect(u, v, u+tw, v+th))
	hash, err := goimagehash.PerceptionHash(window)
	if err != nil {
		return -1
	}
	dist, err := tplHash.Distance(hash)
	if err != nil {
		return -1
	}
	return 1 - float64(dist)/phashBits
}
