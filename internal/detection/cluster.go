package detection

import (
	"context"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tanklens/tanklens/internal/imaging"
)

// ClusterConfig tunes the cluster boundary detector.
type ClusterConfig struct {
	// MaxIterations bounds the 2-means refinement.
	MaxIterations int

	// MinSeparation is the Lab-space centroid distance below which the frame is
	// treated as a single cluster (no discernible boundary).
	MinSeparation float64

	// MinRun is the number of consecutive liquid rows required before a
	// membership switch counts as the boundary.
	MinRun int
}

// DefaultClusterConfig returns the empirically chosen defaults.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		MaxIterations: 20,
		MinSeparation: 0.08,
		MinRun:        3,
	}
}

// ClusterDetector partitions the column-averaged row colors into two clusters
// (liquid vs headspace) and reports the row where membership switches from the
// air cluster to the liquid cluster, scanning top to bottom.
//
// The 2-means refinement is seeded at the lightest and darkest rows, so the
// partition is deterministic: the same frame always yields the same boundary.
type ClusterDetector struct {
	cfg ClusterConfig
}

// NewClusterDetector creates a cluster detector with the given configuration.
func NewClusterDetector(cfg ClusterConfig) *ClusterDetector {
	return &ClusterDetector{cfg: cfg}
}

func (d *ClusterDetector) Method() Method { return MethodClustering }

type labPoint struct {
	l, a, b float64
}

func (p labPoint) sqDist(q labPoint) float64 {
	dl := p.l - q.l
	da := p.a - q.a
	db := p.b - q.b
	return dl*dl + da*da + db*db
}

func (p labPoint) color() colorful.Color {
	return colorful.Lab(p.l, p.a, p.b)
}

// Detect runs the 2-means partition and locates the air-to-liquid boundary.
// Confidence is the Lab distance between the two centroids, clamped to [0,1];
// a separation below the configured floor yields no candidate.
func (d *ClusterDetector) Detect(ctx context.Context, frame *imaging.Frame) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	height := frame.Height()
	if height < 2 {
		return nil, nil
	}

	rows := make([]labPoint, height)
	for y, c := range frame.RowColors() {
		l, a, b := c.Lab()
		rows[y] = labPoint{l, a, b}
	}

	// Seed at the lightest and darkest rows.
	rowLum := frame.RowLuminance()
	minIdx, maxIdx := 0, 0
	for y := 1; y < height; y++ {
		if rowLum[y] < rowLum[minIdx] {
			minIdx = y
		}
		if rowLum[y] > rowLum[maxIdx] {
			maxIdx = y
		}
	}
	if minIdx == maxIdx {
		return nil, nil
	}

	centroids := [2]labPoint{rows[maxIdx], rows[minIdx]} // 0 = light, 1 = dark
	assign := make([]int, height)

	for iter := 0; iter < d.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for y, p := range rows {
			k := 0
			if p.sqDist(centroids[1]) < p.sqDist(centroids[0]) {
				k = 1
			}
			if assign[y] != k {
				assign[y] = k
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		var sums [2]labPoint
		var counts [2]int
		for y, p := range rows {
			k := assign[y]
			sums[k].l += p.l
			sums[k].a += p.a
			sums[k].b += p.b
			counts[k]++
		}
		if counts[0] == 0 || counts[1] == 0 {
			// One cluster swallowed everything.
			return nil, nil
		}
		for k := 0; k < 2; k++ {
			centroids[k].l = sums[k].l / float64(counts[k])
			centroids[k].a = sums[k].a / float64(counts[k])
			centroids[k].b = sums[k].b / float64(counts[k])
		}
	}

	separation := centroids[0].color().DistanceLab(centroids[1].color())
	if separation < d.cfg.MinSeparation {
		return nil, nil
	}

	// Liquid is the darker cluster.
	liquid := 0
	if centroids[1].l < centroids[0].l {
		liquid = 1
	}

	boundary := -1
	for y := 1; y < height; y++ {
		if assign[y-1] == liquid || assign[y] != liquid {
			continue
		}
		run := 1
		for z := y + 1; z < height && assign[z] == liquid; z++ {
			run++
		}
		if run >= d.cfg.MinRun {
			boundary = y
			break
		}
	}
	if boundary < 0 {
		return nil, nil
	}

	confidence := separation
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &Candidate{
		Row:        boundary,
		Confidence: confidence,
		Method:     MethodClustering,
		Metadata: map[string]any{
			"centroid_separation": separation,
			"liquid_centroid_l":   centroids[liquid].l,
		},
	}, nil
}
