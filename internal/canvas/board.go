package canvas

import (
	"sync"

	"go.uber.org/zap"

	"github.com/riddlesketch/client/internal/session"
	"github.com/riddlesketch/client/pkg/wire"
)

// Board merges local and remote strokes into one ordered list and keeps the
// raster cache in step. Strokes are keyed by id and never re-applied; undo
// and clear are structural, applied strictly in arrival order.
type Board struct {
	bus    session.Bus
	log    *zap.Logger
	roomID string

	mu      sync.Mutex
	vp      Viewport
	pen     *Pen
	strokes []wire.Stroke
	seen    map[string]struct{}
	raster  *Raster

	sub *session.Subscription
}

func NewBoard(bus session.Bus, log *zap.Logger, roomID string, vp Viewport) *Board {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Board{
		bus:    bus,
		log:    log,
		roomID: roomID,
		vp:     vp,
		pen:    NewPen(vp),
		seen:   make(map[string]struct{}),
		raster: NewRaster(int(vp.W), int(vp.H)),
	}
	b.sub = bus.Subscribe(wire.EventDrawing, b.onDrawing)
	return b
}

func (b *Board) Detach() {
	b.sub.Cancel()
}

// Begin starts a local stroke. Nothing is broadcast yet.
func (b *Board) Begin(x, y float64, style Style) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pen.Begin(x, y, style)
}

// Extend appends a point to the in-progress stroke and rasterizes only the
// newest segment, keeping pointer-move handling cheap.
func (b *Board) Extend(x, y float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, pt, ok := b.pen.Extend(x, y)
	if !ok {
		return
	}
	b.raster.DrawSegment(b.pen.cur, a, pt)
}

// Complete finalizes the stroke, appends it locally and broadcasts it as
// one atomic message. The authoritative echo of our own stroke will be
// dropped by id.
func (b *Board) Complete() error {
	b.mu.Lock()
	stroke, ok := b.pen.Complete()
	if !ok {
		b.mu.Unlock()
		return nil
	}
	b.strokes = append(b.strokes, stroke)
	b.seen[stroke.ID] = struct{}{}
	b.raster.DrawStroke(stroke)
	b.mu.Unlock()

	return b.bus.Emit(wire.EventDrawing, wire.StrokeDrawing(b.roomID, stroke))
}

// Undo removes the most recent stroke locally and tells the peers.
func (b *Board) Undo() error {
	b.mu.Lock()
	b.applyUndo()
	b.mu.Unlock()
	return b.bus.Emit(wire.EventDrawing, wire.ActionDrawing(b.roomID, wire.ActionUndo))
}

// Clear empties the board locally and tells the peers.
func (b *Board) Clear() error {
	b.mu.Lock()
	b.applyClear()
	b.mu.Unlock()
	return b.bus.Emit(wire.EventDrawing, wire.ActionDrawing(b.roomID, wire.ActionClear))
}

// ApplyRemote merges an already-decoded canvas operation.
func (b *Board) ApplyRemote(op wire.CanvasOp) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch v := op.(type) {
	case wire.StrokeOp:
		b.applyStroke(v.Stroke)
	case wire.UndoOp:
		b.applyUndo()
	case wire.ClearOp:
		b.applyClear()
	}
}

func (b *Board) applyStroke(s wire.Stroke) {
	if _, ok := b.seen[s.ID]; ok {
		b.log.Debug("dropping duplicate stroke", zap.String("id", s.ID))
		return
	}
	b.seen[s.ID] = struct{}{}
	b.strokes = append(b.strokes, s)
	b.raster.DrawStroke(s)
}

func (b *Board) applyUndo() {
	if len(b.strokes) == 0 {
		return
	}
	removed := b.strokes[len(b.strokes)-1]
	b.strokes = b.strokes[:len(b.strokes)-1]
	delete(b.seen, removed.ID)
	b.redrawLocked()
}

func (b *Board) applyClear() {
	b.strokes = nil
	b.seen = make(map[string]struct{})
	b.raster.Clear()
}

// Resize swaps the surface size and regenerates the raster from the stroke
// list, which remains the source of truth.
func (b *Board) Resize(w, h float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vp = Viewport{W: w, H: h}
	b.pen.Resize(b.vp)
	b.raster = NewRaster(int(w), int(h))
	for _, s := range b.strokes {
		b.raster.DrawStroke(s)
	}
}

func (b *Board) redrawLocked() {
	b.raster.Clear()
	for _, s := range b.strokes {
		b.raster.DrawStroke(s)
	}
}

func (b *Board) Strokes() []wire.Stroke {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]wire.Stroke(nil), b.strokes...)
}

// Raster exposes the derived pixel cache for rendering.
func (b *Board) Raster() *Raster {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.raster
}

func (b *Board) onDrawing(env wire.Envelope) {
	var payload wire.DrawingPayload
	if err := env.Decode(&payload); err != nil {
		b.log.Warn("malformed drawing payload", zap.Error(err))
		return
	}
	if payload.RoomID != "" && b.roomID != "" && payload.RoomID != b.roomID {
		return
	}
	op, err := payload.Op()
	if err != nil {
		b.log.Warn("unrecognized drawing payload", zap.Error(err))
		return
	}
	b.ApplyRemote(op)
}
