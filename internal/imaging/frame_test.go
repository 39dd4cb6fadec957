package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createTankImage draws a light headspace above a dark liquid region, with the
// surface at the given boundary row.
func createTankImage(width, height, boundary int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		fill := color.RGBA{220, 220, 220, 255}
		if y >= boundary {
			fill = color.RGBA{40, 40, 40, 255}
		}
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func TestNewFrame(t *testing.T) {
	frame := NewFrame(createTankImage(60, 100, 50), []string{"decode_png"})

	if frame.Width() != 60 || frame.Height() != 100 {
		t.Fatalf("dimensions: got %dx%d, want 60x100", frame.Width(), frame.Height())
	}
	if len(frame.Steps()) != 1 || frame.Steps()[0] != "decode_png" {
		t.Errorf("steps: got %v, want [decode_png]", frame.Steps())
	}

	lum := frame.Luminance()
	if len(lum) != 100 || len(lum[0]) != 60 {
		t.Fatalf("luminance grid: got %dx%d, want 100x60", len(lum), len(lum[0]))
	}
	for y, row := range lum {
		for x, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("luminance[%d][%d] = %f outside [0,1]", y, x, v)
			}
		}
	}

	// Headspace rows must be brighter than liquid rows.
	rowLum := frame.RowLuminance()
	if rowLum[10] <= rowLum[90] {
		t.Errorf("row luminance: headspace %f not brighter than liquid %f", rowLum[10], rowLum[90])
	}
}

func TestFrame_GradientProfile(t *testing.T) {
	frame := NewFrame(createTankImage(60, 100, 50), nil)
	profile := frame.GradientProfile()

	if profile[0] != 0 || profile[99] != 0 {
		t.Errorf("border rows must have zero gradient, got %f and %f", profile[0], profile[99])
	}

	peak := 0
	for y := 1; y < len(profile); y++ {
		if profile[y] > profile[peak] {
			peak = y
		}
	}
	if math.Abs(float64(peak-50)) > 1 {
		t.Errorf("gradient peak at row %d, want near 50", peak)
	}
}

func TestFrame_RowColors(t *testing.T) {
	frame := NewFrame(createTankImage(60, 100, 50), nil)
	colors := frame.RowColors()

	if len(colors) != 100 {
		t.Fatalf("row colors: got %d rows, want 100", len(colors))
	}
	if colors[10].R <= colors[90].R {
		t.Errorf("headspace row not lighter than liquid row: %f vs %f", colors[10].R, colors[90].R)
	}
}
