package imaging

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Frame is the canonical numeric form of a decoded image.
//
// A Frame is built once by the Preprocessor, is owned by the request that
// produced it, and is read-only afterwards. It precomputes the per-pixel
// luminance grid and the column-averaged row profiles so the detectors never
// touch the pixel data concurrently.
type Frame struct {
	img    image.Image
	width  int
	height int
	steps  []string

	lum       [][]float64      // per-pixel luminance in [0,1], lum[y][x]
	rowLum    []float64        // column-averaged luminance per row
	rowColors []colorful.Color // column-averaged color per row
}

// NewFrame builds a Frame from a decoded image.
//
// steps records the preprocessing operations already applied; it is surfaced
// into detection metadata and not interpreted further.
func NewFrame(img image.Image, steps []string) *Frame {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	f := &Frame{
		img:       img,
		width:     width,
		height:    height,
		steps:     steps,
		lum:       make([][]float64, height),
		rowLum:    make([]float64, height),
		rowColors: make([]colorful.Color, height),
	}

	for y := 0; y < height; y++ {
		f.lum[y] = make([]float64, width)
		var sumL, sumR, sumG, sumB float64
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			l := 0.299*rf + 0.587*gf + 0.114*bf
			f.lum[y][x] = l
			sumL += l
			sumR += rf
			sumG += gf
			sumB += bf
		}
		n := float64(width)
		f.rowLum[y] = sumL / n
		f.rowColors[y] = colorful.Color{R: sumR / n, G: sumG / n, B: sumB / n}
	}

	return f
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Steps returns the preprocessing steps that produced this frame.
func (f *Frame) Steps() []string { return f.steps }

// Image returns the normalized image the frame was built from.
// Callers must treat it as read-only.
func (f *Frame) Image() image.Image { return f.img }

// Luminance returns the per-pixel luminance grid, indexed [y][x], values in
// [0,1]. Callers must treat it as read-only.
func (f *Frame) Luminance() [][]float64 { return f.lum }

// RowLuminance returns the column-averaged luminance per row, values in [0,1].
// Callers must treat it as read-only.
func (f *Frame) RowLuminance() []float64 { return f.rowLum }

// RowColors returns the column-averaged color per row.
// Callers must treat it as read-only.
func (f *Frame) RowColors() []colorful.Color { return f.rowColors }

// GradientProfile returns the column-averaged vertical gradient magnitude per
// row, computed by central difference over the row luminance profile. The first
// and last rows have zero gradient.
func (f *Frame) GradientProfile() []float64 {
	grad := make([]float64, f.height)
	for y := 1; y < f.height-1; y++ {
		grad[y] = math.Abs(f.rowLum[y+1]-f.rowLum[y-1]) / 2.0
	}
	return grad
}
