package wire

import "errors"

// Point is a canvas coordinate in the [0,1] unit square. Strokes are stored
// resolution-independent so every peer rasterizes them against its own
// surface size.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StrokeMode string

const (
	StrokeInk   StrokeMode = "ink"
	StrokeErase StrokeMode = "erase"
)

// Stroke is one pointer-down-to-pointer-up gesture. Color is a palette key
// ("primary", ...), not an absolute value: receivers resolve it against
// their own theme.
type Stroke struct {
	ID     string     `json:"id"`
	Color  string     `json:"color"`
	Width  float64    `json:"width"`
	Mode   StrokeMode `json:"mode"`
	Points []Point    `json:"points"`
}

const (
	ActionUndo  = "undo"
	ActionClear = "clear"
)

// DrawingPayload is the loose over-the-wire shape of a "drawing" event:
// either a completed stroke or a structural action. Op converts it into the
// tagged union exactly once, at the transport boundary.
type DrawingPayload struct {
	RoomID string  `json:"roomId"`
	Data   *Stroke `json:"data,omitempty"`
	Action string  `json:"action,omitempty"`
}

var ErrBadDrawing = errors.New("drawing payload is neither a stroke nor a known action")

type CanvasOp interface{ isCanvasOp() }

type StrokeOp struct{ Stroke Stroke }

type UndoOp struct{}

type ClearOp struct{}

func (StrokeOp) isCanvasOp() {}
func (UndoOp) isCanvasOp()   {}
func (ClearOp) isCanvasOp()  {}

func (p DrawingPayload) Op() (CanvasOp, error) {
	switch {
	case p.Data != nil && p.Action == "":
		return StrokeOp{Stroke: *p.Data}, nil
	case p.Data == nil && p.Action == ActionUndo:
		return UndoOp{}, nil
	case p.Data == nil && p.Action == ActionClear:
		return ClearOp{}, nil
	default:
		return nil, ErrBadDrawing
	}
}

func StrokeDrawing(roomID string, s Stroke) DrawingPayload {
	return DrawingPayload{RoomID: roomID, Data: &s}
}

func ActionDrawing(roomID, action string) DrawingPayload {
	return DrawingPayload{RoomID: roomID, Action: action}
}
