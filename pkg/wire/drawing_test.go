package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDrawingPayload_Op(t *testing.T) {
	stroke := Stroke{
		ID:     "s1",
		Color:  "primary",
		Width:  4,
		Mode:   StrokeInk,
		Points: []Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}},
	}

	tests := []struct {
		name    string
		raw     string
		want    CanvasOp
		wantErr bool
	}{
		{
			name: "stroke",
			raw:  `{"roomId":"R1","data":{"id":"s1","color":"primary","width":4,"mode":"ink","points":[{"x":0,"y":0},{"x":0.5,"y":0.5}]}}`,
			want: StrokeOp{Stroke: stroke},
		},
		{
			name: "undo",
			raw:  `{"roomId":"R1","action":"undo"}`,
			want: UndoOp{},
		},
		{
			name: "clear",
			raw:  `{"roomId":"R1","action":"clear"}`,
			want: ClearOp{},
		},
		{
			name:    "empty payload",
			raw:     `{"roomId":"R1"}`,
			wantErr: true,
		},
		{
			name:    "unknown action",
			raw:     `{"roomId":"R1","action":"wipe"}`,
			wantErr: true,
		},
		{
			name:    "both stroke and action",
			raw:     `{"roomId":"R1","action":"undo","data":{"id":"s1"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload DrawingPayload
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &payload))

			op, err := payload.Op()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadDrawing)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, op)
		})
	}
}

func TestEnvelope_Decode(t *testing.T) {
	env, err := NewEnvelope(EventNewRound, NewRound{WordLength: 5, Round: 2, Riddler: "Ben"})
	require.NoError(t, err)

	var nr NewRound
	require.NoError(t, env.Decode(&nr))
	require.Equal(t, 2, nr.Round)
	require.Equal(t, 5, nr.WordLength)
	require.Equal(t, "Ben", nr.Riddler)
	require.Empty(t, nr.Word)

	empty := Envelope{Event: EventNewRound}
	require.Error(t, empty.Decode(&nr))
}

func TestDrawingConstructors(t *testing.T) {
	p := StrokeDrawing("R1", Stroke{ID: "s1"})
	require.NotNil(t, p.Data)
	require.Empty(t, p.Action)

	a := ActionDrawing("R1", ActionClear)
	require.Nil(t, a.Data)
	require.Equal(t, ActionClear, a.Action)
}
