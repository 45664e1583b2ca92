// Package authority is an in-process double of the game authority. It
// implements just enough of the wire contract (joins, snapshots, chat
// echo, guess resolution, drawing relay, moderation acks) to run the
// client against in integration tests and local development. It is not the
// production server and takes no care to be one.
package authority

import (
	"context"

	"go.uber.org/zap"
)

type registryMsg interface{ isRegistryMsg() }

type EnsureRoom struct {
	ID      string
	Creator string // becomes the first riddler
	Reply   chan *Room
}

type GetRoom struct {
	ID    string
	Reply chan *Room
}

type RemoveRoom struct{ ID string }

type ShutdownRegistry struct{}

func (EnsureRoom) isRegistryMsg()      {}
func (GetRoom) isRegistryMsg()         {}
func (RemoveRoom) isRegistryMsg()      {}
func (ShutdownRegistry) isRegistryMsg() {}

// Registry owns the live rooms. Single goroutine, message-driven.
type Registry struct {
	inbox  chan registryMsg
	rooms  map[string]*Room
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewRegistry(parent context.Context, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:  make(chan registryMsg, 64),
		rooms:  make(map[string]*Room),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- registryMsg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if rm := r.rooms[msg.ID]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := NewRoom(r.ctx, msg.ID, msg.Creator, r.log)
				r.rooms[msg.ID] = rm
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- r.rooms[msg.ID] // May be nil

			case RemoveRoom:
				delete(r.rooms, msg.ID)

			case ShutdownRegistry:
				for _, rm := range r.rooms {
					rm.Inbox() <- Shutdown{}
				}
				clear(r.rooms)
				r.cancel()
			}
		}
	}
}

// lookup is a convenience wrapper for the handler paths.
func (r *Registry) lookup(id string) *Room {
	reply := make(chan *Room, 1)
	r.inbox <- GetRoom{ID: id, Reply: reply}
	return <-reply
}

func (r *Registry) ensure(id, creator string) *Room {
	reply := make(chan *Room, 1)
	r.inbox <- EnsureRoom{ID: id, Creator: creator, Reply: reply}
	return <-reply
}
