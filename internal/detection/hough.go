package detection

import (
	"context"
	"math"

	"github.com/tanklens/tanklens/internal/imaging"
)

// HoughConfig tunes the Hough line detector.
type HoughConfig struct {
	// AngleToleranceDeg restricts the search to lines within this many degrees
	// of horizontal.
	AngleToleranceDeg int

	// MinVoteFrac is the vote floor expressed as a fraction of the frame width.
	// Bins below the floor yield no candidate.
	MinVoteFrac float64

	// EdgeThreshold is the luminance gradient threshold for the edge map,
	// in [0,1].
	EdgeThreshold float64
}

// DefaultHoughConfig returns the empirically chosen defaults.
func DefaultHoughConfig() HoughConfig {
	return HoughConfig{
		AngleToleranceDeg: 15,
		MinVoteFrac:       0.3,
		EdgeThreshold:     0.12,
	}
}

// HoughDetector finds the most-voted near-horizontal line in the frame's edge
// map and reports its vertical position.
type HoughDetector struct {
	cfg HoughConfig
}

// NewHoughDetector creates a Hough detector with the given configuration.
func NewHoughDetector(cfg HoughConfig) *HoughDetector {
	return &HoughDetector{cfg: cfg}
}

func (d *HoughDetector) Method() Method { return MethodHough }

// Detect votes edge pixels into a (rho, theta) accumulator restricted to
// near-horizontal angles and picks the most-voted bin. With theta measured from
// the x-axis, a horizontal line has theta = 90 degrees and rho equal to its row.
//
// No bin clearing the vote floor means no candidate, not an error. Ties on
// votes are broken toward the smaller row so results are reproducible.
func (d *HoughDetector) Detect(ctx context.Context, frame *imaging.Frame) (*Candidate, error) {
	width := frame.Width()
	height := frame.Height()
	edges := edgeMap(frame, d.cfg.EdgeThreshold)

	tol := d.cfg.AngleToleranceDeg
	thetaMin := 90 - tol
	numAngles := 2*tol + 1

	// rho = x*cos(theta) + y*sin(theta); offset keeps indices non-negative.
	maxDist := int(math.Sqrt(float64(width*width+height*height))) + 1
	accumulator := make([][]int, 2*maxDist)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	sines := make([]float64, numAngles)
	cosines := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		angle := float64(thetaMin+t) * math.Pi / 180.0
		sines[t] = math.Sin(angle)
		cosines[t] = math.Cos(angle)
	}

	for y := 0; y < height; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < width; x++ {
			if !edges[y][x] {
				continue
			}
			for t := 0; t < numAngles; t++ {
				rho := float64(x)*cosines[t] + float64(y)*sines[t]
				rhoIdx := int(rho) + maxDist
				if rhoIdx >= 0 && rhoIdx < 2*maxDist {
					accumulator[rhoIdx][t]++
				}
			}
		}
	}

	minVotes := int(d.cfg.MinVoteFrac * float64(width))
	if minVotes < 1 {
		minVotes = 1
	}

	bestVotes := 0
	bestRow := -1
	bestTheta := 0
	cx := float64(width) / 2.0

	for rhoIdx := 0; rhoIdx < 2*maxDist; rhoIdx++ {
		for t := 0; t < numAngles; t++ {
			votes := accumulator[rhoIdx][t]
			if votes < minVotes || votes < bestVotes {
				continue
			}
			rho := float64(rhoIdx - maxDist)
			// Row at the horizontal center of the frame.
			row := int(math.Round((rho - cx*cosines[t]) / sines[t]))
			if row < 0 || row >= height {
				continue
			}
			if votes > bestVotes || row < bestRow {
				bestVotes = votes
				bestRow = row
				bestTheta = thetaMin + t
			}
		}
	}

	if bestRow < 0 {
		return nil, nil
	}

	confidence := float64(bestVotes) / float64(width)
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &Candidate{
		Row:        bestRow,
		Confidence: confidence,
		Method:     MethodHough,
		Metadata: map[string]any{
			"votes":     bestVotes,
			"theta_deg": bestTheta,
		},
	}, nil
}
