package imaging

import (
	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Options configures the preprocessing pipeline.
type Options struct {
	// MaxDimension bounds the longest side of the working image. Larger inputs
	// are downscaled to fit; smaller inputs are left alone. Zero disables the
	// bound.
	MaxDimension int

	// Denoise applies a Gaussian blur before analysis.
	Denoise bool

	// DenoiseRadius is the blur radius in pixels. Used only when Denoise is set.
	DenoiseRadius float64

	// Normalize applies a contrast stretch before analysis.
	Normalize bool

	// ContrastBoost is the contrast change applied when Normalize is set,
	// in bild's (-1, 1] convention where 0 means no change.
	ContrastBoost float64
}

// DefaultOptions returns the preprocessing defaults used by the service.
func DefaultOptions() Options {
	return Options{
		MaxDimension:  1024,
		Denoise:       true,
		DenoiseRadius: 2.0,
		Normalize:     true,
		ContrastBoost: 0.2,
	}
}

// Preprocessor normalizes raw image bytes into a Frame.
//
// Process is a pure transform: it holds no per-request state and is safe for
// concurrent use.
type Preprocessor struct {
	opts Options
}

// NewPreprocessor creates a preprocessor with the given options.
func NewPreprocessor(opts Options) *Preprocessor {
	return &Preprocessor{opts: opts}
}

// Process decodes data and runs the preprocessing pipeline, returning the
// resulting Frame.
//
// When apply is false only decoding and the bounded downscale run; denoise and
// contrast normalization are skipped. Decoding failures return ErrInvalidImage
// or ErrUnsupportedFormat (wrapped).
func (p *Preprocessor) Process(data []byte, apply bool) (*Frame, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}

	steps := []string{"decode_" + format}

	if p.opts.MaxDimension > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > p.opts.MaxDimension || bounds.Dy() > p.opts.MaxDimension {
			img = imaging.Fit(img, p.opts.MaxDimension, p.opts.MaxDimension, imaging.Lanczos)
			steps = append(steps, "resize")
		}
	}

	if apply {
		if p.opts.Denoise && p.opts.DenoiseRadius > 0 {
			img = blur.Gaussian(img, p.opts.DenoiseRadius)
			steps = append(steps, "denoise_gaussian")
		}
		if p.opts.Normalize && p.opts.ContrastBoost != 0 {
			img = adjust.Contrast(img, p.opts.ContrastBoost)
			steps = append(steps, "contrast_stretch")
		}
	}

	return NewFrame(img, steps), nil
}
