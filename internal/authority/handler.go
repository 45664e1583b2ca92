package authority

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riddlesketch/client/pkg/wire"
)

func envelopeOf(event string, data any, log *zap.Logger) wire.Envelope {
	env, err := wire.NewEnvelope(event, data)
	if err != nil {
		log.Warn("encode frame", zap.String("event", event), zap.Error(err))
		return wire.Envelope{Event: event}
	}
	return env
}

// Handler accepts a websocket connection and bridges it to a room actor.
// joinRoom and checkRoom are answered here (they need the registry); every
// other frame is forwarded to the joined room.
func Handler(reg *Registry, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan wire.Envelope, 16)
		var joined *Room

		// Writer goroutine: drains the outbox until the room closes it,
		// then closes the socket to unblock the reader.
		writeCtx, writeCancel := context.WithCancel(context.Background())
		defer writeCancel()
		go func() {
			for env := range out {
				payload, err := json.Marshal(env)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			conn.Close(websocket.StatusNormalClosure, "bye")
		}()

		defer func() {
			if joined != nil {
				joined.Inbox() <- Detach{ConnID: connID, Outbox: out}
			} else {
				close(out)
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}

			var env wire.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}

			switch env.Event {
			case wire.EventJoinRoom:
				var jr wire.JoinRoom
				if env.Decode(&jr) != nil {
					continue
				}
				room := reg.lookup(jr.RoomID)
				if room == nil {
					sendAck(out, env.Seq, wire.Ack{Success: false, Message: "room not found"}, log)
					continue
				}
				joined = room
				room.Inbox() <- Join{
					ConnID:   connID,
					Username: jr.Username,
					Seq:      env.Seq,
					Outbox:   out,
				}

			case wire.EventCheckRoom:
				var cr wire.CheckRoom
				if env.Decode(&cr) != nil {
					continue
				}
				exists := reg.lookup(cr.RoomID) != nil
				ack := wire.Ack{Success: exists, Exists: exists}
				if !exists {
					ack.Message = "room not found"
				}
				sendAck(out, env.Seq, ack, log)

			default:
				if joined != nil {
					joined.Inbox() <- Frame{ConnID: connID, Env: env}
				}
			}
		}
	}
}

func sendAck(out chan wire.Envelope, seq uint64, ack wire.Ack, log *zap.Logger) {
	env := envelopeOf(wire.EventAck, ack, log)
	env.Seq = seq
	select {
	case out <- env:
	default:
	}
}
