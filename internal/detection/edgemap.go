package detection

import (
	"math"

	"github.com/tanklens/tanklens/internal/imaging"
)

// edgeMap builds a binary edge map from the frame's luminance grid using a
// simple forward-difference gradient threshold. Border pixels are never edges.
func edgeMap(frame *imaging.Frame, threshold float64) [][]bool {
	lum := frame.Luminance()
	width := frame.Width()
	height := frame.Height()

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			dx := math.Abs(lum[y][x] - lum[y][x+1])
			dy := math.Abs(lum[y][x] - lum[y+1][x])
			if dx > threshold || dy > threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}
