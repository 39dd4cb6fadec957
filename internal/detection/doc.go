// Package detection implements the liquid-level detectors and the ensemble
// combiner that fuses their candidates.
//
// Three independent detectors are provided, each implementing the Detector
// interface and producing at most one Candidate per frame:
//
//   - Hough: near-horizontal line search over a Hough accumulator built from a
//     binary edge map; the liquid surface projects roughly horizontally, so the
//     angular search space is restricted to a small tolerance around 0 degrees.
//   - Clustering: deterministic 2-means partition of the column-averaged row
//     colors in CIE Lab space (liquid vs headspace), reporting the row where
//     membership switches from the air cluster to the liquid cluster.
//   - Edge: peak search over the column-averaged vertical gradient profile,
//     restricted to a vertical band that avoids tank rim and cap artifacts.
//
// A detector that finds nothing returns a nil Candidate with a nil error; this
// is an empty result, not a failure, and the combiner tolerates it.
//
// # Ensemble
//
// Combine fuses one to three candidates into a single estimate: a
// confidence-weighted mean of the candidate rows with one outlier-rejection
// pass, an agreement score derived from the spread of the surviving rows, and a
// final confidence that rewards both per-method certainty and cross-method
// consensus. Combine is a pure function of its inputs: identical candidate sets
// produce identical estimates regardless of input order.
//
// # Confidence Scores
//
// All confidences are in [0, 1]:
//   - Hough: winning accumulator votes relative to the frame width
//   - Clustering: Lab-space separation between the two centroids
//   - Edge: peak gradient magnitude against the profile's noise floor
//
// # Coordinate System
//
// Rows are 0-based with row 0 at the top of the frame, so a smaller row means a
// fuller tank under the usual top-of-tank camera convention. Detectors report
// pixel rows only; mapping to a fill percentage is the calibration engine's job.
package detection
