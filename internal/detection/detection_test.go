package detection

import (
	"image"
	"image/color"

	"github.com/tanklens/tanklens/internal/imaging"
)

// tankFrame builds a synthetic frame with a light headspace above a dark
// liquid region, surface at the given boundary row.
func tankFrame(width, height, boundary int) *imaging.Frame {
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
	return imaging.NewFrame(img, nil)
}

// uniformFrame builds a frame with no structure at all.
func uniformFrame(width, height int) *imaging.Frame {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return imaging.NewFrame(img, nil)
}
