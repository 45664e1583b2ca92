// Package canvas synchronizes the shared drawing surface: normalized
// coordinates, the in-progress stroke, the completed stroke list and the
// raster cache derived from it.
package canvas

import "github.com/riddlesketch/client/pkg/wire"

// Viewport converts between device pixels and the [0,1] unit square.
// Strokes travel in unit coordinates so peers with different surface sizes
// render them identically.
type Viewport struct {
	W float64
	H float64
}

func (v Viewport) ToUnit(x, y float64) wire.Point {
	p := wire.Point{}
	if v.W > 0 {
		p.X = clamp01(x / v.W)
	}
	if v.H > 0 {
		p.Y = clamp01(y / v.H)
	}
	return p
}

func (v Viewport) FromUnit(p wire.Point) (x, y float64) {
	return p.X * v.W, p.Y * v.H
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
