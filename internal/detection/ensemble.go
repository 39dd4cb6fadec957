package detection

import (
	"math"
	"sort"
)

// EnsembleConfig tunes the combiner.
type EnsembleConfig struct {
	// OutlierFrac is the row distance beyond which a candidate is excluded from
	// the fused estimate, expressed as a fraction of the frame height.
	OutlierFrac float64
}

// DefaultEnsembleConfig returns the empirically chosen defaults.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{OutlierFrac: 0.3}
}

// Estimate is the fused output of the combiner.
type Estimate struct {
	Row          int         `json:"row"`
	Confidence   float64     `json:"confidence"`
	Agreement    float64     `json:"agreement"`
	Method       Method      `json:"method"`
	Contributing []Candidate `json:"contributing"`
}

// Combine fuses zero or more candidates into a single estimate.
//
// With no candidates it returns ErrNoCandidate. A single candidate passes
// through verbatim with agreement 1.0. With two or more, the candidate rows are
// averaged weighted by confidence; candidates further than
// OutlierFrac*frameHeight from the weighted mean are excluded and the mean is
// recomputed once over the survivors. Agreement is 1 minus the survivors' row
// standard deviation over the frame height, clamped to [0,1], and the final
// confidence is the weighted mean of the survivors' confidences damped by
// agreement, so certain but disagreeing detectors still yield a cautious
// result.
//
// Combine is deterministic and insensitive to input order: candidates are
// sorted into a canonical order before fusion. If the outlier pass would
// discard every candidate the highest-confidence one is kept.
func Combine(candidates []Candidate, frameHeight int, cfg EnsembleConfig) (*Estimate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidate
	}
	if frameHeight <= 0 {
		return nil, ErrNoCandidate
	}

	cands := make([]Candidate, len(candidates))
	copy(cands, candidates)
	sort.Slice(cands, func(i, j int) bool {
		if methodRank(cands[i].Method) != methodRank(cands[j].Method) {
			return methodRank(cands[i].Method) < methodRank(cands[j].Method)
		}
		return cands[i].Row < cands[j].Row
	})

	if len(cands) == 1 {
		c := cands[0]
		return &Estimate{
			Row:          c.Row,
			Confidence:   c.Confidence,
			Agreement:    1.0,
			Method:       c.Method,
			Contributing: cands,
		}, nil
	}

	mean := weightedRow(cands)

	threshold := cfg.OutlierFrac * float64(frameHeight)
	survivors := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if math.Abs(float64(c.Row)-mean) <= threshold {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 0 {
		survivors = []Candidate{mostConfident(cands)}
	}
	mean = weightedRow(survivors)

	agreement := 1.0
	if len(survivors) > 1 {
		var variance float64
		rowMean := 0.0
		for _, c := range survivors {
			rowMean += float64(c.Row)
		}
		rowMean /= float64(len(survivors))
		for _, c := range survivors {
			d := float64(c.Row) - rowMean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(survivors)))
		agreement = clamp01(1.0 - std/float64(frameHeight))
	}

	confidence := clamp01(weightedConfidence(survivors) * agreement)

	method := MethodEnsemble
	if len(survivors) == 1 {
		method = survivors[0].Method
	}

	return &Estimate{
		Row:          int(math.Round(mean)),
		Confidence:   confidence,
		Agreement:    agreement,
		Method:       method,
		Contributing: survivors,
	}, nil
}

// weightedRow averages candidate rows weighted by confidence. Zero-confidence
// sets fall back to a plain mean.
func weightedRow(cands []Candidate) float64 {
	var sum, totalWeight float64
	for _, c := range cands {
		sum += float64(c.Row) * c.Confidence
		totalWeight += c.Confidence
	}
	if totalWeight == 0 {
		for _, c := range cands {
			sum += float64(c.Row)
		}
		return sum / float64(len(cands))
	}
	return sum / totalWeight
}

func weightedConfidence(cands []Candidate) float64 {
	var sum, totalWeight float64
	for _, c := range cands {
		sum += c.Confidence * c.Confidence
		totalWeight += c.Confidence
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// mostConfident returns the best candidate from a canonically ordered slice,
// so ties resolve by method rank and then row.
func mostConfident(cands []Candidate) Candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
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
