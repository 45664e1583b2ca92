package canvas

import (
	"errors"

	"github.com/google/uuid"

	"github.com/riddlesketch/client/pkg/wire"
)

// ColorPrimary is the theme-relative ink key. Receivers resolve it against
// their own palette, so a stroke drawn under a light theme shows correctly
// on a peer using a dark one.
const ColorPrimary = "primary"

var ErrAlreadyAuthoring = errors.New("pen: stroke already in progress")

type Style struct {
	Color string
	Width float64
	Mode  wire.StrokeMode
}

func InkStyle(width float64) Style {
	return Style{Color: ColorPrimary, Width: width, Mode: wire.StrokeInk}
}

func EraseStyle(width float64) Style {
	return Style{Color: ColorPrimary, Width: width, Mode: wire.StrokeErase}
}

type penState int

const (
	penIdle penState = iota
	penAuthoring
)

// Pen accumulates one stroke from pointer-down to pointer-up as an explicit
// state machine. Pointer events arriving in the wrong state are ignored
// rather than corrupting a half-built stroke.
type Pen struct {
	vp    Viewport
	state penState
	cur   wire.Stroke
}

func NewPen(vp Viewport) *Pen {
	return &Pen{vp: vp}
}

func (p *Pen) Authoring() bool { return p.state == penAuthoring }

// Begin starts a stroke at a device-pixel origin. The stroke id is
// allocated here; nothing is broadcast until Complete.
func (p *Pen) Begin(x, y float64, style Style) error {
	if p.state == penAuthoring {
		return ErrAlreadyAuthoring
	}
	p.cur = wire.Stroke{
		ID:     uuid.NewString(),
		Color:  style.Color,
		Width:  style.Width,
		Mode:   style.Mode,
		Points: []wire.Point{p.vp.ToUnit(x, y)},
	}
	p.state = penAuthoring
	return nil
}

// Extend appends a point and returns the newest segment so the caller can
// redraw just that piece. A move while idle is a no-op.
func (p *Pen) Extend(x, y float64) (a, b wire.Point, ok bool) {
	if p.state != penAuthoring {
		return wire.Point{}, wire.Point{}, false
	}
	pt := p.vp.ToUnit(x, y)
	p.cur.Points = append(p.cur.Points, pt)
	n := len(p.cur.Points)
	return p.cur.Points[n-2], p.cur.Points[n-1], true
}

// Complete finalizes and returns the stroke, resetting the pen to idle.
func (p *Pen) Complete() (wire.Stroke, bool) {
	if p.state != penAuthoring {
		return wire.Stroke{}, false
	}
	done := p.cur
	p.cur = wire.Stroke{}
	p.state = penIdle
	return done, true
}

// Resize repoints the pen at a new surface size. An in-progress stroke
// keeps its unit coordinates; only future conversions change.
func (p *Pen) Resize(vp Viewport) {
	p.vp = vp
}
