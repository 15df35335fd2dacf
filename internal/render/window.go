package render

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrWindowClosed is returned by Window.Wait when the user closed the window.
var ErrWindowClosed = errors.New("plot window closed")

type point struct {
	X, Y int32
}

// polyline maps values to pixel coordinates inside a width x height area,
// x spread evenly and y scaled so the maximum touches the top edge.
func polyline(values []float64, width, height int) []point {
	if len(values) == 0 || width < 1 || height < 1 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	lo = min(lo, 0)
	span := hi - lo
	pts := make([]point, len(values))
	for i, v := range values {
		x := 0
		if len(values) > 1 {
			x = i * (width - 1) / (len(values) - 1)
		}
		y := height - 1
		if span > 0 {
			y = int(float64(height-1) * (1 - (v-lo)/span))
		}
		pts[i] = point{X: int32(x), Y: int32(y)}
	}
	return pts
}
