package detection

import (
	"context"
	"sort"

	"github.com/tanklens/tanklens/internal/imaging"
)

// EdgeConfig tunes the edge-profile detector.
type EdgeConfig struct {
	// BandTop and BandBottom bound the vertical search band as fractions of the
	// frame height, excluding tank rim and cap artifacts at the extremes.
	BandTop    float64
	BandBottom float64

	// MinConfidence is the floor below which the peak is considered noise and
	// no candidate is returned.
	MinConfidence float64

	// ExpectedRow biases tie-breaking toward rows near a prior expectation
	// (e.g. the calibration midpoint). Negative means no expectation.
	ExpectedRow int
}

// DefaultEdgeConfig returns the empirically chosen defaults.
func DefaultEdgeConfig() EdgeConfig {
	return EdgeConfig{
		BandTop:       0.05,
		BandBottom:    0.95,
		MinConfidence: 0.05,
		ExpectedRow:   -1,
	}
}

// EdgeDetector picks the row with the strongest column-averaged vertical
// gradient inside the configured search band.
type EdgeDetector struct {
	cfg EdgeConfig
}

// NewEdgeDetector creates an edge-profile detector with the given configuration.
func NewEdgeDetector(cfg EdgeConfig) *EdgeDetector {
	return &EdgeDetector{cfg: cfg}
}

func (d *EdgeDetector) Method() Method { return MethodEdge }

// Detect scans the gradient profile for its maximum. Confidence is the peak
// magnitude against the band's median (the noise floor). Magnitude ties prefer
// the row closest to the configured expectation when one is set, otherwise the
// smallest row index, so repeated runs are reproducible.
func (d *EdgeDetector) Detect(ctx context.Context, frame *imaging.Frame) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	height := frame.Height()
	profile := frame.GradientProfile()

	top := int(d.cfg.BandTop * float64(height))
	bottom := int(d.cfg.BandBottom * float64(height))
	if top < 1 {
		top = 1
	}
	if bottom > height-1 {
		bottom = height - 1
	}
	if bottom-top < 2 {
		return nil, nil
	}

	bestRow := -1
	bestMag := 0.0
	for y := top; y < bottom; y++ {
		mag := profile[y]
		switch {
		case mag > bestMag:
			bestMag = mag
			bestRow = y
		case mag == bestMag && bestRow >= 0 && d.cfg.ExpectedRow >= 0:
			if abs(y-d.cfg.ExpectedRow) < abs(bestRow-d.cfg.ExpectedRow) {
				bestRow = y
			}
		}
	}
	if bestRow < 0 || bestMag == 0 {
		return nil, nil
	}

	// Noise floor: median gradient across the band.
	band := make([]float64, 0, bottom-top)
	for y := top; y < bottom; y++ {
		band = append(band, profile[y])
	}
	sort.Float64s(band)
	floor := band[len(band)/2]

	confidence := 1.0 - floor/bestMag
	if confidence < 0 {
		confidence = 0
	}
	if confidence < d.cfg.MinConfidence {
		return nil, nil
	}

	return &Candidate{
		Row:        bestRow,
		Confidence: confidence,
		Method:     MethodEdge,
		Metadata: map[string]any{
			"peak_magnitude": bestMag,
			"noise_floor":    floor,
		},
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
