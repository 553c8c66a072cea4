package locator

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	_ "image/jpeg" // frame decoder
	_ "image/png"  // template decoder
	"log/slog"
	"time"

	"github.com/nfnt/resize"

	"screenpilot/internal/errors"
	"screenpilot/internal/geometry"
	"screenpilot/internal/resilience"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultConfidence    = 0.7
	DefaultMaxAttempts   = 1
	DefaultRetryInterval = 500 * time.Millisecond
)

// Options control a single Locate call.
type Options struct {
	Confidence    float64       // threshold in (0,1]
	MaxAttempts   int           // total capture+match cycles, >= 1
	RetryInterval time.Duration // fixed sleep between attempts, >= 0
}

func (o Options) withDefaults() Options {
	if o.Confidence <= 0 || o.Confidence > 1 {
		o.Confidence = DefaultConfidence
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryInterval < 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	return o
}

// Match is the result of one Locate call. Box and Anchors are only populated
// when Found is true.
type Match struct {
	Found      bool               `json:"found"`
	Confidence float64            `json:"confidence,omitempty"`
	Strategy   string             `json:"strategy,omitempty"`
	Box        geometry.Box       `json:"box,omitempty"`
	Anchors    geometry.AnchorSet `json:"anchors,omitempty"`
}

// FrameSource captures one full-screen frame as encoded image bytes.
type FrameSource interface {
	CaptureAlways() ([]byte, error)
}

// Locator runs every configured strategy against each captured frame and
// keeps the best normalized score. Ties go to the earlier-listed strategy.
type Locator struct {
	frames     FrameSource
	strategies []Strategy
	downscale  int // match on 1/downscale sized images; 1 = full resolution
}

// New creates a Locator. With no strategies it defaults to the multi-method
// set: ccoeff, sqdiff, phash, in that order.
func New(frames FrameSource, strategies ...Strategy) *Locator {
	if len(strategies) == 0 {
		strategies = []Strategy{CrossCorrelation{}, SquaredDifference{}, PerceptionGrid{}}
	}
	return &Locator{frames: frames, strategies: strategies, downscale: 1}
}

// ByName maps configured strategy names to implementations, preserving order.
// Unknown names are skipped; an empty result means the caller should accept
// the default set.
func ByName(names ...string) []Strategy {
	var out []Strategy
	for _, name := range names {
		switch name {
		case CrossCorrelation{}.Name():
			out = append(out, CrossCorrelation{})
		case SquaredDifference{}.Name():
			out = append(out, SquaredDifference{})
		case PerceptionGrid{}.Name():
			out = append(out, PerceptionGrid{})
		default:
			slog.Warn("unknown match strategy ignored", "name", name)
		}
	}
	return out
}

// WithDownscale makes matching run on frames and templates shrunk by factor.
// Result boxes are scaled back to screen coordinates.
func (l *Locator) WithDownscale(factor int) *Locator {
	if factor > 1 {
		l.downscale = factor
	}
	return l
}

// errNoMatch marks an attempt where no strategy met the threshold. It is
// retryable and is converted to Found=false once attempts are exhausted.
var errNoMatch = errors.New(errors.NotFound, "no strategy met the confidence threshold")

// Locate decodes the template and searches captured frames for it, retrying
// up to opts.MaxAttempts with a fixed interval. Exhausting attempts without a
// match returns Found=false and a nil error; a capture or matching failure on
// the final attempt propagates instead.
func (l *Locator) Locate(ctx context.Context, template []byte, opts Options) (Match, error) {
	opts = opts.withDefaults()

	tplImg, _, err := image.Decode(bytes.NewReader(template))
	if err != nil {
		return Match{}, errors.Wrap(err, errors.InvalidTemplate, "template could not be decoded")
	}
	origW, origH := tplImg.Bounds().Dx(), tplImg.Bounds().Dy()
	tpl := l.prepare(tplImg)

	var match Match
	retry := resilience.Config{
		MaxAttempts: opts.MaxAttempts,
		Interval:    opts.RetryInterval,
		IsRetryable: func(err error) bool {
			// Bad templates fail every attempt identically; everything else
			// (capture hiccups, transient mismatch) is worth another frame.
			return !errors.IsCode(err, errors.InvalidTemplate)
		},
	}

	err = resilience.Do(ctx, retry, func() error {
		frame, err := l.captureGray()
		if err != nil {
			return err
		}
		if tpl.Rect.Dx() > frame.Rect.Dx() || tpl.Rect.Dy() > frame.Rect.Dy() {
			return errors.Newf(errors.InvalidTemplate,
				"template %dx%d exceeds frame %dx%d",
				tpl.Rect.Dx(), tpl.Rect.Dy(), frame.Rect.Dx(), frame.Rect.Dy())
		}

		bestScore := -1.0
		var bestLoc image.Point
		var bestName string
		for _, s := range l.strategies {
			score, loc := s.Score(frame, tpl)
			slog.Debug("strategy scored", "strategy", s.Name(), "score", score)
			if score > bestScore {
				bestScore = score
				bestLoc = loc
				bestName = s.Name()
			}
		}

		if bestScore < opts.Confidence {
			slog.Debug("below threshold", "best", bestScore, "threshold", opts.Confidence)
			return errNoMatch
		}

		box := geometry.Box{
			X: bestLoc.X * l.downscale,
			Y: bestLoc.Y * l.downscale,
			W: origW,
			H: origH,
		}
		match = Match{
			Found:      true,
			Confidence: bestScore,
			Strategy:   bestName,
			Box:        box,
			Anchors:    geometry.Anchors(box),
		}
		return nil
	})

	switch {
	case err == nil:
		return match, nil
	case errors.IsCode(err, errors.NotFound):
		return Match{Found: false}, nil
	default:
		return Match{}, err
	}
}

// captureGray grabs one frame and converts it to grayscale at match resolution.
func (l *Locator) captureGray() (*image.Gray, error) {
	data, err := l.frames.CaptureAlways()
	if err != nil {
		// Frame sources outside internal/screen may return plain errors.
		if errors.CodeOf(err) == errors.Unknown {
			err = errors.Wrap(err, errors.CaptureFailure, "screen capture failed")
		}
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CaptureFailure, "captured frame could not be decoded")
	}
	return l.prepare(img), nil
}

// prepare converts to zero-origin grayscale, downscaling when configured.
// Strategies index frame pixels directly and require zero-origin bounds.
func (l *Locator) prepare(img image.Image) *image.Gray {
	if l.downscale > 1 {
		w := uint(img.Bounds().Dx() / l.downscale)
		h := uint(img.Bounds().Dy() / l.downscale)
		if w >= 1 && h >= 1 {
			img = resize.Resize(w, h, img, resize.Bilinear)
		}
	}
	gray := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(gray, gray.Rect, img, img.Bounds().Min, draw.Src)
	return gray
}
