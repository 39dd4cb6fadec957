// Package calibration maps a detected pixel row to a fill percentage and
// volume through a per-tank calibration curve.
//
// A curve is an ordered set of (pixel row, percentage) points. Sorted by row,
// the percentages must be strictly monotonic in one consistent direction; in
// the usual camera orientation percentage decreases as the row grows (row 0 is
// the top of the tank). Rows between points interpolate linearly segment by
// segment; rows outside the calibrated range clamp to the nearest boundary
// percentage and flag the conversion as extrapolated rather than failing, since
// marginal over/under-fill readings are expected in the field.
package calibration

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidCalibration indicates a curve that violates the calibration
	// invariants (too few points, duplicate rows, non-monotonic percentages).
	ErrInvalidCalibration = errors.New("invalid calibration")

	// ErrNotFound indicates an unknown calibration ID.
	ErrNotFound = errors.New("calibration not found")
)

// Type selects how a curve is interpreted.
type Type string

const (
	// TypeLinear is a two-point curve: one global line.
	TypeLinear Type = "linear"

	// TypePiecewise interpolates across the segments of three or more points.
	TypePiecewise Type = "piecewise"
)

// Point anchors one pixel row to a fill percentage.
type Point struct {
	PixelRow   int     `json:"pixel_row"`
	Percentage float64 `json:"percentage"`
}

// Calibration is a per-tank calibration curve. It is created and updated by an
// external management surface; the detection core only reads it.
type Calibration struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ImageHeight    int     `json:"image_height"`
	TankCapacityML float64 `json:"tank_capacity_ml"`
	Type           Type    `json:"calibration_type"`
	Points         []Point `json:"points"`
}

// Conversion is the outcome of mapping a pixel row through a curve.
type Conversion struct {
	Percentage float64

	// VolumeML is nil when the curve carries no tank capacity.
	VolumeML *float64

	// Extrapolated is set when the row fell outside the calibrated range and
	// the percentage was clamped to the nearest boundary.
	Extrapolated bool
}

// Validate checks the calibration invariants: at least two points, unique
// pixel rows, percentages within [0,100], and strictly monotonic percentages
// in one consistent direction once sorted by row.
func (c *Calibration) Validate() error {
	if len(c.Points) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidCalibration, len(c.Points))
	}

	pts := c.sortedPoints()
	for i, p := range pts {
		if p.Percentage < 0 || p.Percentage > 100 {
			return fmt.Errorf("%w: point %d percentage %.2f outside [0,100]", ErrInvalidCalibration, i, p.Percentage)
		}
		if i > 0 && pts[i-1].PixelRow == p.PixelRow {
			return fmt.Errorf("%w: duplicate pixel row %d", ErrInvalidCalibration, p.PixelRow)
		}
	}

	descending := pts[0].Percentage > pts[1].Percentage
	for i := 1; i < len(pts); i++ {
		diff := pts[i].Percentage - pts[i-1].Percentage
		if diff == 0 || (diff < 0) != descending {
			return fmt.Errorf("%w: percentages not strictly monotonic at row %d", ErrInvalidCalibration, pts[i].PixelRow)
		}
	}

	switch c.Type {
	case TypeLinear, TypePiecewise:
	case "":
		// Tolerated: treated as linear/piecewise by point count.
	default:
		return fmt.Errorf("%w: unknown calibration type %q", ErrInvalidCalibration, c.Type)
	}

	return nil
}

// Convert maps a pixel row through the curve.
//
// Rows between two calibration points interpolate linearly; linear and
// piecewise curves use the same segment math, a linear curve simply has a
// single segment. Rows outside the calibrated range clamp to the boundary
// percentage and mark the conversion extrapolated.
func (c *Calibration) Convert(pixelRow int) (Conversion, error) {
	if err := c.Validate(); err != nil {
		return Conversion{}, err
	}

	pts := c.sortedPoints()
	first, last := pts[0], pts[len(pts)-1]

	var conv Conversion
	switch {
	case pixelRow <= first.PixelRow:
		conv.Percentage = first.Percentage
		conv.Extrapolated = pixelRow < first.PixelRow
	case pixelRow >= last.PixelRow:
		conv.Percentage = last.Percentage
		conv.Extrapolated = pixelRow > last.PixelRow
	default:
		for i := 1; i < len(pts); i++ {
			lo, hi := pts[i-1], pts[i]
			if pixelRow > hi.PixelRow {
				continue
			}
			t := float64(pixelRow-lo.PixelRow) / float64(hi.PixelRow-lo.PixelRow)
			conv.Percentage = lo.Percentage + t*(hi.Percentage-lo.Percentage)
			break
		}
	}

	if c.TankCapacityML > 0 {
		volume := conv.Percentage / 100.0 * c.TankCapacityML
		conv.VolumeML = &volume
	}

	return conv, nil
}

// sortedPoints returns the points ordered by pixel row ascending, without
// mutating the calibration.
func (c *Calibration) sortedPoints() []Point {
	pts := make([]Point, len(c.Points))
	copy(pts, c.Points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].PixelRow < pts[j].PixelRow })
	return pts
}

// Clone returns a deep copy, so in-flight requests keep a stable snapshot while
// the management surface updates the stored curve.
func (c *Calibration) Clone() *Calibration {
	points := make([]Point, len(c.Points))
	copy(points, c.Points)
	clone := *c
	clone.Points = points
	return &clone
}

// Default returns the default linear curve for an uncalibrated tank: empty at
// 90% of the image height, full at 10%.
func Default(imageHeight int, tankCapacityML float64) *Calibration {
	return &Calibration{
		ID:             "default",
		Name:           "default",
		ImageHeight:    imageHeight,
		TankCapacityML: tankCapacityML,
		Type:           TypeLinear,
		Points: []Point{
			{PixelRow: imageHeight * 9 / 10, Percentage: 0},
			{PixelRow: imageHeight / 10, Percentage: 100},
		},
	}
}
