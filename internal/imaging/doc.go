// Package imaging implements image decoding and the preprocessing pipeline that
// turns a raw upload into the canonical Frame consumed by the detectors.
//
// A Frame is produced once per request and is read-only afterwards: it carries
// the normalized image, a luminance grid, and the column-averaged profiles the
// detectors work from. All coordinates use the standard image convention with
// (0,0) at the top-left corner, X increasing rightward and Y increasing downward,
// so a larger row index is lower in the tank.
//
// # Preprocessing
//
// The pipeline applies, in order:
//
//  1. Bounded downscale: images larger than the configured maximum dimension are
//     fitted into that dimension (Lanczos resampling) to bound detector cost.
//  2. Denoise: Gaussian blur with a small radius.
//  3. Contrast normalization: a fixed contrast stretch to separate liquid from
//     headspace in low-contrast shots.
//
// Steps 2 and 3 are optional; the steps actually applied are recorded on the
// Frame and surfaced into result metadata.
//
// # Luminance
//
// Grayscale conversion uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B)
// with values scaled to [0, 1].
//
// # Error Handling
//
//   - ErrInvalidImage: the payload cannot be decoded at all
//   - ErrUnsupportedFormat: the payload is not PNG, JPEG, or GIF
//
// Both are returned wrapped, so callers should test with errors.Is.
package imaging
