package canvas

import (
	"math"

	"github.com/riddlesketch/client/pkg/wire"
)

// Theme maps palette keys to concrete colors at render time. Ink cells
// store keys, never resolved colors, so switching themes re-colors every
// stroke and never resurrects erased ink.
type Theme struct {
	Name       string
	Background string
	Palette    map[uint8]string
}

var (
	ThemeLight = Theme{
		Name:       "light",
		Background: "#FFFFFF",
		Palette:    map[uint8]string{inkPrimary: "#000000"},
	}
	ThemeDark = Theme{
		Name:       "dark",
		Background: "#0B1220",
		Palette:    map[uint8]string{inkPrimary: "#FFFFFF"},
	}
)

const (
	inkNone    uint8 = 0
	inkPrimary uint8 = 1
)

func paletteIndex(color string) uint8 {
	switch color {
	case ColorPrimary:
		return inkPrimary
	default:
		return inkPrimary
	}
}

// Raster is the derived pixel cache of the stroke list. It is never the
// source of truth: the board regenerates it wholesale on resize, undo and
// clear. Erasing is subtractive: cells go back to empty instead of being
// painted in the background color, which keeps erasures correct across
// theme switches.
type Raster struct {
	w, h  int
	cells []uint8
}

func NewRaster(w, h int) *Raster {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Raster{w: w, h: h, cells: make([]uint8, w*h)}
}

func (r *Raster) Width() int  { return r.w }
func (r *Raster) Height() int { return r.h }

func (r *Raster) Clear() {
	for i := range r.cells {
		r.cells[i] = inkNone
	}
}

// At reports the palette key at a cell, inkNone when empty.
func (r *Raster) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return inkNone
	}
	return r.cells[y*r.w+x]
}

// ColorAt resolves a cell against a theme, returning the background for
// empty cells.
func (r *Raster) ColorAt(theme Theme, x, y int) string {
	key := r.At(x, y)
	if key == inkNone {
		return theme.Background
	}
	if c, ok := theme.Palette[key]; ok {
		return c
	}
	return theme.Background
}

func (r *Raster) DrawStroke(s wire.Stroke) {
	if len(s.Points) == 1 {
		r.DrawSegment(s, s.Points[0], s.Points[0])
		return
	}
	for i := 1; i < len(s.Points); i++ {
		r.DrawSegment(s, s.Points[i-1], s.Points[i])
	}
}

// DrawSegment stamps one segment of a stroke. Ink writes the stroke's
// palette key; erase removes whatever ink is under it.
func (r *Raster) DrawSegment(s wire.Stroke, a, b wire.Point) {
	ax, ay := a.X*float64(r.w-1), a.Y*float64(r.h-1)
	bx, by := b.X*float64(r.w-1), b.Y*float64(r.h-1)

	steps := int(math.Max(math.Abs(bx-ax), math.Abs(by-ay))) + 1
	value := paletteIndex(s.Color)
	if s.Mode == wire.StrokeErase {
		value = inkNone
	}
	radius := s.Width / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		r.stamp(ax+(bx-ax)*t, ay+(by-ay)*t, radius, value)
	}
}

func (r *Raster) stamp(cx, cy, radius float64, value uint8) {
	x0 := int(math.Floor(cx - radius))
	x1 := int(math.Ceil(cx + radius))
	y0 := int(math.Floor(cy - radius))
	y1 := int(math.Ceil(cy + radius))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if x < 0 || y < 0 || x >= r.w || y >= r.h {
				continue
			}
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= radius*radius {
				r.cells[y*r.w+x] = value
			}
		}
	}
}
